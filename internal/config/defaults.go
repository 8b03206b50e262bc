package config

import "time"

// Default values for optional configuration parameters.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultServerListenAddr      = ":8080"
	DefaultServerMaxHandlers     = 50
	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerShutdownTimeout = 15 * time.Second

	DefaultLineAPIBaseURL     = "https://api.line.me"
	DefaultLineRequestTimeout = 10 * time.Second

	DefaultDBPath             = "venues.db"
	DefaultDBOperationTimeout = 15 * time.Second

	DefaultDialogueListSize   = 3
	DefaultDialogueSessionTTL = 24 * time.Hour

	DefaultKeywordSurprise = "驚喜"
	DefaultKeywordTopRated = "推薦"
	DefaultKeywordAddVenue = "新增店家"

	DefaultWeatherTimeout          = 5 * time.Second
	DefaultWeatherFailureThreshold = 3
	DefaultWeatherCooldownPeriod   = time.Minute
)

// DefaultDialogueRegions is the selectable region list shown to users.
var DefaultDialogueRegions = []string{
	"東區", "西區", "南區", "北區", "中西區", "安平區", "安南區", "永康區",
}

// DefaultDialogueMessages are the canned prompt texts.
var DefaultDialogueMessages = DialogueMessages{
	PickRegion:      "想逛哪一區呢？",
	PickCategory:    "想找美食、小吃還是景點？",
	PickRegionFirst: "請先選擇一個地區喔！",
	AskTitle:        "請輸入店家名稱：",
	AskRating:       "幫這間店打個分數吧（1-5 顆星）",
	ThanksRating:    "收到評分，謝謝你！",
	VenueNotFound:   "找不到這間店，評分沒有記錄到，謝謝你的回饋！",
	NoResults:       "這一區目前還沒有資料，換個地區試試？",
	NoWeather:       "天氣資訊暫時拿不到，先看看景點吧！",
	GeneralError:    "出了點狀況，請稍後再試一次。",
	Fallback:        "輸入「驚喜」或「推薦」開始，或輸入「新增店家」分享口袋名單！",
}

// DefaultSchedulerTasks enables the built-in maintenance jobs.
var DefaultSchedulerTasks = map[string]TaskConfig{
	"session_sweep":   {Schedule: "0 0 * * * *", Enabled: true},
	"sql_maintenance": {Schedule: "0 0 4 * * *", Enabled: true},
}
