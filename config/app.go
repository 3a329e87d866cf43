package config

type App struct {
	Port          string  `env:"APP_PORT" default:"8080"`
	DatabaseURL   string  `env:"DATABASE_URL,required"`
	JWTSecret     string  `env:"JWT_SECRET,required"`
	XenditAPIKey  string  `env:"XENDIT_API_KEY"`
	XenditCBToken string  `env:"XENDIT_CALLBACK_TOKEN"`
	FinePerDay    float64 `env:"FINE_PER_DAY" default:"2"`
	ExpiryDays    int     `env:"RESERVATION_EXPIRY_DAYS" default:"3"`
	Env           string  `env:"APP_ENV" default:"dev"`
}
