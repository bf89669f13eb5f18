package config

const (
	defaultLogLevel             = "info"
	defaultTimeoutSeconds       = 30
	defaultCollection           = "entities"
	defaultQuery                = "{}"
	defaultProjection           = `{ "name": 1 }`
	defaultDistinctField        = "_type"
	defaultItem                 = `{"name":"Allan", "_type":"test"}`
	defaultItems                = `[{"name":"Allan", "_type":"test"}, {"name":"Allan2", "_type":"test"}]`
	defaultQueue                = "test2queue"
	defaultMessage              = `{"message":"Test message"}`
	defaultQueueReply           = `{"status":"ok"}`
	defaultRPCTimeoutSeconds    = 5
	defaultCustomCommand        = "getclients"
	defaultCustomCommandTimeout = 2
	defaultRobotID              = "5ce94386320b9ce0bc2c3d07"
	defaultWorkflowID           = "5e0b52194f910e30ce9e3e49"
	defaultRobotPayload         = `{"test":"test"}`
	defaultRobotTimeoutSeconds  = 10
	defaultGaugeF64             = "test_f64"
	defaultGaugeU64             = "test_u64"
	defaultGaugeI64             = "test_i64"
)

// Default returns a Config populated with the built-in sample payloads.
func Default() Config {
	return Config{
		LogLevel:              defaultLogLevel,
		DefaultTimeoutSeconds: defaultTimeoutSeconds,
		Samples: Samples{
			Collection:                  defaultCollection,
			Query:                       defaultQuery,
			Projection:                  defaultProjection,
			DistinctField:               defaultDistinctField,
			Item:                        defaultItem,
			Items:                       defaultItems,
			Queue:                       defaultQueue,
			Message:                     defaultMessage,
			QueueReply:                  defaultQueueReply,
			RPCTimeoutSeconds:           defaultRPCTimeoutSeconds,
			CustomCommand:               defaultCustomCommand,
			CustomCommandTimeoutSeconds: defaultCustomCommandTimeout,
			RobotID:                     defaultRobotID,
			WorkflowID:                  defaultWorkflowID,
			RobotPayload:                defaultRobotPayload,
			RobotTimeoutSeconds:         defaultRobotTimeoutSeconds,
			GaugeF64:                    defaultGaugeF64,
			GaugeU64:                    defaultGaugeU64,
			GaugeI64:                    defaultGaugeI64,
		},
	}
}
