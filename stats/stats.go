package stats

type Stat struct {
	Name                string  `json:"stat_name"`
	Value               int     `json:"stat_value"`
	PreviousTickerValue int     `json:"stat_previous_ticker_value"`
	RatePerSecond       float64 `json:"stat_rate_per_second"`
}

type StatValue int

type Stats interface {
	AddStat(s StatValue) bool
	Init() error
	Run()
	String() string
	Counters() []Stat
	Stop() error
	DeInit() error
}
