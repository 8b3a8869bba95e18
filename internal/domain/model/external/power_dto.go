package external

// PowerHeader is the header block of a NASA POWER point response
type PowerHeader struct {
	Title     string   `json:"title"`
	Sources   []string `json:"sources"`
	FillValue *float64 `json:"fill_value"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
}

// PowerProperties holds parameter -> date key -> value
type PowerProperties struct {
	Parameter map[string]map[string]float64 `json:"parameter"`
}

// PowerResponse is the GeoJSON-like body returned by /api/temporal/{daily,monthly}/point
type PowerResponse struct {
	Type       string          `json:"type"`
	Header     PowerHeader     `json:"header"`
	Properties PowerProperties `json:"properties"`
	Messages   []string        `json:"messages"`
}

// PowerErrorResponse is returned with 4xx/5xx statuses
type PowerErrorResponse struct {
	Header   string   `json:"header"`
	Messages []string `json:"messages"`
}

// DefaultFillValue marks missing data when the header does not carry one
const DefaultFillValue = -999.0

// FillValue returns the header fill value or the POWER default
func (r *PowerResponse) FillValue() float64 {
	if r.Header.FillValue != nil {
		return *r.Header.FillValue
	}
	return DefaultFillValue
}

// Series returns the values of one parameter
func (r *PowerResponse) Series(parameter string) map[string]float64 {
	if r.Properties.Parameter == nil {
		return nil
	}
	return r.Properties.Parameter[parameter]
}
