package finov1

// ServiceName is the fully-qualified name of the inspection service.
const ServiceName = "fino.v1.InspectionService"

// Procedure paths, one per operation.
const (
	ListRootsProcedure            = "/" + ServiceName + "/ListRoots"
	FilterRootsProcedure          = "/" + ServiceName + "/FilterRoots"
	ListFieldsProcedure           = "/" + ServiceName + "/ListFields"
	ListMethodsProcedure          = "/" + ServiceName + "/ListMethods"
	ListNestedTypesProcedure      = "/" + ServiceName + "/ListNestedTypes"
	ListConstructorsProcedure     = "/" + ServiceName + "/ListConstructors"
	ListConstructorsAtProcedure   = "/" + ServiceName + "/ListConstructorsAt"
	ResolveTypeNameProcedure      = "/" + ServiceName + "/ResolveTypeName"
	AllAncestorTypeNamesProcedure = "/" + ServiceName + "/AllAncestorTypeNames"
	MethodNameProcedure           = "/" + ServiceName + "/MethodName"
	MethodParamsProcedure         = "/" + ServiceName + "/MethodParams"
	ReadPathProcedure             = "/" + ServiceName + "/ReadPath"
	ReadValueProcedure            = "/" + ServiceName + "/ReadValue"
	WritePathProcedure            = "/" + ServiceName + "/WritePath"
	InvokeProcedure               = "/" + ServiceName + "/Invoke"
	InvokeByNameProcedure         = "/" + ServiceName + "/InvokeByName"
	ConstructProcedure            = "/" + ServiceName + "/Construct"
	ConstructAtProcedure          = "/" + ServiceName + "/ConstructAt"
	IsSequenceProcedure           = "/" + ServiceName + "/IsSequence"
	EnumerateProcedure            = "/" + ServiceName + "/Enumerate"
	ItemAtProcedure               = "/" + ServiceName + "/ItemAt"
	PushLiteralProcedure          = "/" + ServiceName + "/PushLiteral"
	PushResolvedProcedure         = "/" + ServiceName + "/PushResolved"
	ListMacrosProcedure           = "/" + ServiceName + "/ListMacros"
	FilterMacrosProcedure         = "/" + ServiceName + "/FilterMacros"
	MacroParamsProcedure          = "/" + ServiceName + "/MacroParams"
	MacroDescriptionProcedure     = "/" + ServiceName + "/MacroDescription"
	RunMacroProcedure             = "/" + ServiceName + "/RunMacro"
	LoadMacroProcedure            = "/" + ServiceName + "/LoadMacro"
)
