package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host string
		Port int
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		DisableTLS    bool
	}

	// DropoutBreakpoints holds the additive point system behind the dropout
	// risk score. The relative weighting (attendance > grade > trend) is the
	// policy; the exact breakpoints are tunable.
	DropoutBreakpoints struct {
		AttendanceCritical    float64
		AttendanceCriticalPts int
		AttendanceWarn        float64
		AttendanceWarnPts     int
		GradeCritical         float64
		GradeCriticalPts      int
		GradeWarn             float64
		GradeWarnPts          int
		SlopeCritical         float64
		SlopeCriticalPts      int
		SlopeWarn             float64
		SlopeWarnPts          int
	}

	// RuleThresholds holds the breakpoints behind the qualitative
	// strength/weakness/recommendation rules.
	RuleThresholds struct {
		StrongGrade      float64 // avg at or above -> strength
		WeakGrade        float64 // avg below -> weakness + recommendation
		StrongAttendance float64 // rate at or above -> strength
		WeakAttendance   float64 // rate below -> weakness + recommendation

		GroupLowPerformance float64 // group avg below -> curriculum review hint
		GroupLowAttendance  float64 // group rate below -> scheduling hint
		GroupLowCompletion  float64 // completion below -> assessment hint
		GroupMinFillRatio   float64 // roster/capacity below this -> merge hint
		GroupAttentionShare float64 // flagged/roster above this -> assistant hint
	}

	// AlertThresholds holds the system-wide alerting breakpoints.
	AlertThresholds struct {
		AttendanceMin   float64 // below this -> ATTENDANCE alert
		AttendanceHigh  float64 // below this -> severity HIGH
		PerformanceMin  float64 // below this -> PERFORMANCE alert
		PerformanceHigh float64 // below this -> severity HIGH
		OverdueHigh     int     // more than this -> PAYMENT severity HIGH
		CapacityRatio   float64 // roster/capacity above this -> CAPACITY alert
	}

	// InsightsConfig gathers every policy constant used by the insights
	// generators so tuning does not require touching algorithm code.
	InsightsConfig struct {
		GradeMargin float64 // trend margin for grade aggregates
		RateMargin  float64 // trend margin for rate (percentage) aggregates

		GradeWeight      float64 // student composite score
		AttendanceWeight float64

		GroupGradeWeight      float64 // group member ranking favors grades
		GroupAttendanceWeight float64

		// LateCountsAsPresent controls whether LATE attendance counts toward
		// the present-equivalent numerator of attendance rates.
		LateCountsAsPresent bool

		PerformanceWindow int // last k performance records per student
		AttendanceWindow  int // last m attendance records per student
		GroupWindowDays   int // trailing window for group aggregation
		TrendWindowMonths int // default months for system trend analysis
		LookaheadPeriods  int // projection horizon for expected next grade

		Dropout DropoutBreakpoints
		Rules   RuleThresholds
		Alerts  AlertThresholds
	}

	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		Build            string
		AppName          string
		SecretKey        string
		DefaultFromEmail string
		AdminEmail       string
		FrontendBaseURL  string

		JWTExpirationDelta time.Duration

		SendgridAPIKey string
		RollbarToken   string

		Server   ServerConfig
		Database DatabaseConfig
		Insights InsightsConfig
	}
)

func (conf DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", conf.Host, conf.Port)
}

func (conf ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", conf.Host, conf.Port)
}

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and environment variables.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "TPQ Baitus Shuffah")
	v.SetDefault("secretKey", "w3lc0me-t0-b41tus-shuff4h-ch4nge-me")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("adminEmail", "admin@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "tpq")
	v.SetDefault("database.user", "tpq")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.disableTLS", true)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		AdminEmail:       v.GetString("adminEmail"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),

		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),

		SendgridAPIKey: v.GetString("sendgridAPIKey"),
		RollbarToken:   v.GetString("rollbarToken"),

		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Insights: NewInsightsConfig(),
	}
}

// NewInsightsConfig returns the default insights policy.
func NewInsightsConfig() InsightsConfig {
	return InsightsConfig{
		GradeMargin: 5,
		RateMargin:  10,

		GradeWeight:      0.6,
		AttendanceWeight: 0.4,

		GroupGradeWeight:      0.7,
		GroupAttendanceWeight: 0.3,

		LateCountsAsPresent: true,

		PerformanceWindow: 10,
		AttendanceWindow:  30,
		GroupWindowDays:   30,
		TrendWindowMonths: 6,
		LookaheadPeriods:  3,

		Dropout: DropoutBreakpoints{
			AttendanceCritical:    70,
			AttendanceCriticalPts: 30,
			AttendanceWarn:        85,
			AttendanceWarnPts:     15,
			GradeCritical:         60,
			GradeCriticalPts:      25,
			GradeWarn:             75,
			GradeWarnPts:          10,
			SlopeCritical:         -2,
			SlopeCriticalPts:      20,
			SlopeWarn:             0,
			SlopeWarnPts:          10,
		},
		Rules: RuleThresholds{
			StrongGrade:      85,
			WeakGrade:        70,
			StrongAttendance: 90,
			WeakAttendance:   80,

			GroupLowPerformance: 70,
			GroupLowAttendance:  80,
			GroupLowCompletion:  70,
			GroupMinFillRatio:   0.5,
			GroupAttentionShare: 0.3,
		},
		Alerts: AlertThresholds{
			AttendanceMin:   80,
			AttendanceHigh:  60,
			PerformanceMin:  70,
			PerformanceHigh: 50,
			OverdueHigh:     10,
			CapacityRatio:   0.9,
		},
	}
}
