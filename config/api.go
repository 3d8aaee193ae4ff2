package config

// ApiOptions configures the optional HTTP API. A zero Port disables it.
type ApiOptions struct {
	Address string
	Port    int
}

func (o *ApiOptions) Enabled() bool {
	return o != nil && o.Port > 0
}
