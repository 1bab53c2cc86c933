package consts

// Component names used for container registration and dependency wiring.
const (
	COMPONENT_LOGGING     = "logging"
	COMPONENT_POSTGRES    = "postgres_gorm"
	COMPONENT_REDIS       = "redis"
	COMPONENT_METRICS     = "metrics"
	COMPONENT_TELEMETRY   = "telemetry"
	COMPONENT_HTTP_SERVER = "http_server"

	COMP_DAO_TASK      = "task_dao"
	COMP_SVC_TASK      = "task_service"
	COMP_SESSION_STORE = "session_store"
	COMP_CTRL_TASK     = "task_controller"
)

const (
	ENV_DEVELOPMENT = "development"
	ENV_PRODUCTION  = "production"

	DEFAULT_CONFIG_PATH = "configs/config.yaml"
)
