package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Cycle/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Cycle"
	AppCommand        = "go-cycle"
	AppID             = "com.github.tartampluch.go-cycle"
	KeyringService    = "com.github.tartampluch.go-cycle"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	// Used for creating secure cache directories.
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Commands, Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion = "version"
	FlagDebug   = "debug"
	FlagConfig  = "config"
	FlagLang    = "lang"
	FlagFormat  = "format"

	FlagDescVersion = "Show application version and exit"
	FlagDescDebug   = "Enable debug logging to stderr"
	FlagDescConfig  = "Path to the settings file (default $XDG_CONFIG_HOME/go-cycle/config.yaml)"
	FlagDescLang    = "Display language (overrides the settings file)"
	FlagDescFormat  = "Output format (text|json)"

	CmdShort        = "Predict the next menstrual cycle from logged history"
	CmdLong         = "go-cycle reads logged cycle start dates from a file, a web endpoint or PostgreSQL,\npredicts the next start date with a confidence score, and publishes the result as an\niCalendar feed."
	CmdPredictUse   = "predict"
	CmdPredictShort = "Print the next cycle prediction"
	CmdHistoryUse   = "history"
	CmdHistoryShort = "Print the logged cycle history, newest first"
	CmdServeUse     = "serve"
	CmdServeShort   = "Publish the calendar feed and resync periodically"
	CmdTokenUse     = "token"
	CmdTokenShort   = "Manage the web source secret in the system keyring"
	CmdTokenSetUse  = "set <user>"
	CmdTokenSetSh   = "Read a secret from stdin and store it for <user>"
	CmdTokenDelUse  = "delete <user>"
	CmdTokenDelSh   = "Remove the stored secret for <user>"

	FormatText = "text"
	FormatJSON = "json"

	MsgVersionOutput = "%s version %s (commit %s, built %s, %s/%s)\n"
)

// ValidFormats lists the accepted values of --format.
var ValidFormats = []string{FormatText, FormatJSON}

// SupportedLanguages defines the list of available display languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Settings (viper keys, file locations, environment)
// -----------------------------------------------------------------------------

const (
	SettingsDirName  = "go-cycle"
	SettingsFileName = "config.yaml"
	SettingsFileType = "yaml"
	EnvPrefix        = "GOCYCLE"
	EnvKeySeparator  = "_"
	SettingsKeySep   = "."

	KeyLanguage          = "language"
	KeySourceMode        = "source.mode"
	KeySourcePath        = "source.path"
	KeySourceURL         = "source.url"
	KeySourceUser        = "source.user"
	KeySourceAuth        = "source.auth"
	KeyDatabaseURL       = "database.url"
	KeyDatabaseUserID    = "database.user_id"
	KeyServerPort        = "server.port"
	KeySyncInterval      = "sync.interval_minutes"
	KeyReminderEnabled   = "reminder.enabled"
	KeyReminderValue     = "reminder.value"
	KeyReminderUnit      = "reminder.unit"
	KeyReminderDirection = "reminder.direction"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyCalName          = "calendar_name"
	TKeyEvtPredicted     = "event_predicted"      // Requires Confidence
	TKeyEvtPredictedDesc = "event_predicted_desc" // Plural on Count
	TKeyEvtLogged        = "event_logged"

	TKeyReportTitle        = "report_title"
	TKeyReportPredicted    = "report_predicted"
	TKeyReportAverage      = "report_average"
	TKeyReportConfidence   = "report_confidence"
	TKeyReportDays         = "report_days"         // Plural on Count
	TKeyReportInDays       = "report_in_days"      // Plural on Count
	TKeyReportDaysAgo      = "report_days_ago"     // Plural on Count
	TKeyReportToday        = "report_today"
	TKeyReportInsufficient = "report_insufficient" // Requires Count, Min
	TKeyReportHistory      = "report_history"
	TKeyReportNoHistory    = "report_no_history"
	TKeyReportFlow         = "report_flow" // Requires Level
	TKeyFormatDate         = "format_date_long"

	TKeyTokenStored  = "token_stored"  // Requires User
	TKeyTokenDeleted = "token_deleted" // Requires User
)

// Template data keys shared by translation files.
const (
	TemplateKeyCount      = "Count"
	TemplateKeyMin        = "Min"
	TemplateKeyLevel      = "Level"
	TemplateKeyConfidence = "Confidence"
	TemplateKeyUser       = "User"
)

// -----------------------------------------------------------------------------
// Locale Files
// -----------------------------------------------------------------------------

const (
	LocalesDir   = "locales"
	LocalePrefix = "active."
	LocaleSuffix = ".json"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceModeWeb        = "web"
	SourceModeLocal      = "local"
	SourceModePostgres   = "postgres"
	DefaultSourceMode    = SourceModeLocal
	AuthBasic            = "basic"
	AuthBearer           = "bearer"
	DefaultAuth          = AuthBasic
	DefaultPort          = 18080
	DefaultRefreshMin    = 60
	DefaultLanguage      = "en"
	DefaultReminderValue = 1
	UIDSalt              = "go-cycle-v1-" // Salt for deterministic UID generation
	DisabledInterval     = 0
)

// Prediction parameters.
const (
	// MinPredictionEvents is the smallest history that yields a prediction.
	MinPredictionEvents = 3

	// MinCycleLength rejects averages that would not move the date forward.
	MinCycleLength = 1

	// MaxAcceptableDeviation (days) scales the confidence formula:
	// confidence = 100 * (1 - sd / (2 * MaxAcceptableDeviation)).
	MaxAcceptableDeviation = 5.0

	MinConfidence = 0.0
	MaxConfidence = 100.0

	HoursPerDay = 24

	MinFlowLevel = 1
	MaxFlowLevel = 5
)

// ISO8601 Duration Components for Reminders
const (
	ISOPeriodPrefix   = "P"
	ISONegativePrefix = "-P"
	ISOTimePrefix     = "T"
	ISODay            = "D"
	ISOHour           = "H"
	ISOMinute         = "M"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Cycle//Engine//EN"
	ICalCalName   = "Cycle forecast"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "gocycle"

	// iCal Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTEnd       = "DTEND"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	UIDKindLogged    = "logged"
	UIDKindPredicted = "predicted"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	DateFormatISO  = "2006-01-02"
	DateFormatLong = "January 2, 2006"

	// UID Generation
	KeySeparator = "|"
	FormatUID    = "%s@%s"

	// Record files
	RecordFormatJSON = "json"
	RecordFormatYAML = "yaml"
	ExtYAML          = ".yaml"
	ExtYML           = ".yml"
)

// -----------------------------------------------------------------------------
// Database
// -----------------------------------------------------------------------------

const (
	DBDriverName     = "pgx"
	DBConnectTimeout = 5 * time.Second
	EnvTestDatabase  = "GOCYCLE_TEST_DATABASE_URL"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 16 * 1024 * 1024 // 16MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
	RouteCalendar       = "/calendar.ics"
	RouteForecast       = "/forecast"
	AddrSeparator       = ":"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderAuthorization   = "Authorization"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	BearerPrefix = "Bearer "

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json"
	MimeJSONUTF8        = "application/json; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrLocalPathEmpty   = "configuration error: local path is empty"
	ErrWebURLEmpty      = "configuration error: web URL is empty"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrModeUnsupport    = "configuration error: unsupported source mode"
	ErrUserIDEmpty      = "configuration error: database user id is empty"
	ErrDatabaseURLEmpty = "configuration error: database URL is empty"
	ErrStoreMissing     = "internal error: record store is not initialized"
	ErrRecordLoad       = "failed to load cycle records"
	ErrRecordDecode     = "failed to decode cycle records"
	ErrRecordInvalid    = "invalid cycle record"
	ErrFormatUnsupport  = "unsupported record format"
	ErrEndBeforeStart   = "end date is before start date"
	ErrDateParse        = "unable to parse date"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrRequestBuild     = "failed to build HTTP request"
	ErrNetwork          = "network request failed"
	ErrUnexpectedStatus = "unexpected HTTP status"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrJSONEncode       = "failed to encode forecast document"
	ErrDBOpen           = "failed to open database"
	ErrDBPing           = "database unreachable"
	ErrDBQuery          = "failed to query cycle records"
	ErrDBScan           = "failed to scan cycle record"
	ErrConfigRead       = "failed to read settings file"
	ErrConfigDecode     = "failed to decode settings"
	ErrConfigInvalid    = "invalid settings"
	ErrConfigDir        = "could not determine user config dir"
	ErrSecretRead       = "failed to read secret"
	ErrSecretEmpty      = "secret is empty"
	ErrSecretStore      = "failed to store secret in keyring"
	ErrSecretDelete     = "failed to delete secret from keyring"
	ErrInvalidFormat    = "invalid output format"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackPredicted     = "Predicted cycle start (%d%% confidence)"
	FallbackPredictedDesc = "Average cycle length: %d days"
	FallbackLogged        = "Cycle started"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgSyncSuccess    = "Synchronization completed successfully."
	MsgSyncStarted    = "Synchronization started..."
	MsgSyncFailed     = "Synchronization failed. Check logs."
	MsgSyncReq        = "Sync requested"
	MsgWorkerStart    = "Background worker started"
	MsgWorkerStop     = "Worker stopping due to context cancellation"
	MsgUpdateSync     = "Updating sync interval"
	MsgSettingsReload = "Settings file changed, reloading"
	MsgSettingsBad    = "Ignoring invalid settings after reload"
	MsgSettingsNone   = "No settings file found, using defaults"
	MsgAppStop        = "Application stopped gracefully"
	MsgAppStarting    = "Starting application"
	MsgSkippedRecord  = "Skipping invalid cycle record"
	MsgSkippedFlow    = "Ignoring out-of-range flow level"
	MsgGenSuccess     = "Calendar generation successful"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Document cache updated"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgPassFail       = "Secret retrieval failed (might be empty)"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
	MsgSecretPrompt   = "Secret for %s: "
	MsgStoreOpened    = "Connected to record database"
	MsgSignalResync   = "Resync requested by signal"
)

// -----------------------------------------------------------------------------
// Report Layout
// -----------------------------------------------------------------------------

const (
	ReportIndent       = "  "
	ReportGapIndent    = "    "
	ReportColumnSep    = "  "
	ReportLabelWidth   = 17
	ConfidenceBarWidth = 20
	BarFilled          = "#"
	BarEmpty           = "-"
	JSONIndent         = "  "
)

// -----------------------------------------------------------------------------
// Reminder Units & Directions
// -----------------------------------------------------------------------------

const (
	UnitDays    = "d"
	UnitHours   = "h"
	UnitMinutes = "m"
	DirBefore   = "before"
	DirAfter    = "after"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent     = "component"
	LogKeyError         = "error"
	LogKeyURL           = "url"
	LogKeyStatus        = "status_code"
	LogKeyContentLen    = "content_length"
	LogKeyContentType   = "content_type"
	LogKeyFile          = "file"
	LogKeyLang          = "lang"
	LogKeyKey           = "key"
	LogKeyPort          = "port"
	LogKeyMode          = "mode"
	LogKeyInterval      = "interval"
	LogKeyOld           = "old"
	LogKeyNew           = "new"
	LogKeyUser          = "user"
	LogKeyIndex         = "index"
	LogKeyRecordID      = "record_id"
	LogKeyFlow          = "flow_level"
	LogKeyEvents        = "events"
	LogKeyPredicted     = "predicted"
	LogKeyPredictedDate = "predicted_date"
	LogKeyAverage       = "average_days"
	LogKeyConfidence    = "confidence"
	LogKeySizeBytes     = "size_bytes"
	LogKeyETag          = "etag"
	LogKeyManual        = "manual"
	LogKeyStats         = "stats"
	LogKeyDuration      = "duration_ms"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompApp     = "app"
	CompCLI     = "cli"
	CompEngine  = "engine"
	CompServer  = "server"
	CompFetcher = "fetcher"
	CompStore   = "store"
	CompWorker  = "worker"
	CompMain    = "main"
	CompI18n    = "i18n"
	CompConfig  = "config"
)
