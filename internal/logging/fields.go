package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldAction is the standardized structured logging key for mutation action tags.
	FieldAction = "action"
	// FieldSeq is the standardized structured logging key for mutation queue sequence ids.
	FieldSeq = "seq"
	// FieldLocalID is the standardized structured logging key for client-generated entity ids.
	FieldLocalID = "local_id"
	// FieldServerID is the standardized structured logging key for server-assigned entity ids.
	FieldServerID = "server_id"
	// FieldTrigger is the standardized structured logging key for sync trigger sources.
	FieldTrigger = "trigger"
)
