// fino CLI - runs an inspectable demo host or talks to a running one
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/sysdream/fino/config"
)

var log = commonlog.GetLogger("fino.cli")

func main() {
	configDir := flag.String("config", ".", "Directory to search upwards for fino.toml")
	addr := flag.String("addr", "", "Server address (overrides [server] addr)")
	codec := flag.String("codec", "", "Wire codec: cbor or json (overrides [server] codec)")
	useGRPC := flag.Bool("grpc", false, "Call the server with grpc-go instead of Connect")
	verbosity := flag.Int("v", -1, "Log verbosity (overrides [log] verbosity)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fino [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  serve                      Run the demo host and its inspection server\n")
		for _, c := range commands {
			fmt.Fprintf(os.Stderr, "  %-26s %s\n", c.name+" "+c.args, c.help)
		}
		fmt.Fprintf(os.Stderr, "\nA REF is a handle followed by field selectors, e.g. 0 or 0.1.3\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fino serve                 # Serve on [server] addr (127.0.0.1:7700)\n")
		fmt.Fprintf(os.Stderr, "  fino roots                 # List root handles\n")
		fmt.Fprintf(os.Stderr, "  fino -grpc fields 0.1      # Fields of field 1 of root 0, over gRPC\n")
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FindAndLoad(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *codec != "" {
		cfg.Server.Codec = *codec
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}

	var logFile *string
	if cfg.Log.File != "" {
		logFile = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity, logFile)

	name, args := flag.Arg(0), flag.Args()[1:]
	if name == "serve" {
		err = serve(cfg)
	} else {
		err = runRemote(cfg, *useGRPC, name, args)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
