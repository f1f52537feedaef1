package domain

type CreateReminderRequest struct {
	Title     string          `json:"title" validate:"required,max=200"`
	Body      string          `json:"body" validate:"max=2000"`
	Kind      ReminderKind    `json:"kind" validate:"omitempty,oneof=note checklist"`
	Checklist []ChecklistItem `json:"checklist" validate:"omitempty,dive"`
	Lat       float64         `json:"lat" validate:"lat"`
	Lng       float64         `json:"lng" validate:"lng"`
	RadiusM   float64         `json:"radius_m" validate:"required,radius_m"`
	OnExit    bool            `json:"on_exit"`
}

type UpdateReminderRequest struct {
	Title     *string         `json:"title" validate:"omitempty,max=200"`
	Body      *string         `json:"body" validate:"omitempty,max=2000"`
	Checklist []ChecklistItem `json:"checklist" validate:"omitempty,dive"`
	Lat       *float64        `json:"lat" validate:"omitempty,lat"`
	Lng       *float64        `json:"lng" validate:"omitempty,lng"`
	RadiusM   *float64        `json:"radius_m" validate:"omitempty,radius_m"`
	OnExit    *bool           `json:"on_exit"`
	IsActive  *bool           `json:"is_active"`
}

type ListRemindersResponse struct {
	Reminders []Reminder `json:"reminders"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
	Total     int64      `json:"total"`
}

// SampleRequest is a location sample pushed over HTTP, the foreground-feed
// equivalent of the MQTT subscription.
type SampleRequest struct {
	Lat       float64 `json:"lat" validate:"lat"`
	Lng       float64 `json:"lng" validate:"lng"`
	Timestamp int64   `json:"timestamp" validate:"omitempty,min=0"`
}

type MonitorStats struct {
	Reminders      int64 `json:"reminders"`
	ActiveFences   int   `json:"active_fences"`
	TriggeredTotal int64 `json:"triggered_total"`
	Monitoring     bool  `json:"monitoring"`
}
