package config

import (
	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/utils"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		MongoDB: MongoDB{
			Port:     utils.GetEnvString("MONGODB_PORT", "27017"),
			Host:     utils.GetEnvString("MONGODB_HOST", "localhost"),
			DbName:   utils.GetEnvString("MONGODB_DB_NAME", constvars.MongoDatabaseName),
			Username: utils.GetEnvString("MONGODB_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("MONGODB_PASSWORD", "defaultPassword"),
		},
		Redis: Redis{
			Host:     utils.GetEnvString("REDIS_HOST", "localhost"),
			Port:     utils.GetEnvString("REDIS_PORT", "6379"),
			Password: utils.GetEnvString("REDIS_PASSWORD", "customRedisPass"),
		},
		RabbitMQ: RabbitMQ{
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "defaultPassword"),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
	}
}

func NewInternalConfig() *InternalConfig {
	return &InternalConfig{
		App: App{
			Env:             utils.GetEnvString("APP_ENV", "development"),
			Port:            utils.GetEnvString("APP_PORT", ":8080"),
			Version:         utils.GetEnvString("APP_VERSION", "v1"),
			Address:         utils.GetEnvString("APP_ADDRESS", "localhost"),
			Timezone:        utils.GetEnvString("APP_TIMEZONE", "Asia/Kolkata"),
			EndpointPrefix:  utils.GetEnvString("APP_ENDPOINT_PREFIX", "api"),
			MaxRequests:     utils.GetEnvInt("APP_MAX_REQUEST", 50),
			ShutdownTimeout: utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT", 10),
		},
		PaymentGateway: PaymentGateway{
			BaseUrl:              utils.GetEnvString("PAYMENT_GATEWAY_BASE_URL", "http://localhost:7000"),
			ApiKey:               utils.GetEnvString("PAYMENT_GATEWAY_API_KEY", ""),
			POSProvider:          utils.GetEnvString("PAYMENT_GATEWAY_POS_PROVIDER", constvars.PaymentProviderPOSBridge),
			UPIProvider:          utils.GetEnvString("PAYMENT_GATEWAY_UPI_PROVIDER", constvars.PaymentProviderUPIPSP),
			HTTPTimeoutInSeconds: utils.GetEnvInt("PAYMENT_GATEWAY_HTTP_TIMEOUT_IN_SECONDS", 15),
		},
		Timeouts: Timeouts{
			CardReading:        utils.GetEnvInt("TIMEOUT_CARD_READING_IN_SECONDS", constvars.DefaultCardReadingTimeoutInSeconds),
			UPIPollingInterval: utils.GetEnvInt("TIMEOUT_UPI_POLLING_INTERVAL_IN_SECONDS", constvars.DefaultUPIPollingIntervalInSeconds),
			UPIQRValidity:      utils.GetEnvInt("TIMEOUT_UPI_QR_VALIDITY_IN_SECONDS", constvars.DefaultUPIQRValidityInSeconds),
		},
		JWT: JWT{
			Secret:        utils.GetEnvString("JWT_SECRET", "anyjwt"),
			ExpTimeInHour: utils.GetEnvInt("JWT_EXP_TIME_IN_HOUR", 12),
		},
	}
}
