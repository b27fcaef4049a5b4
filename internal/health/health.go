// Package health provides server health reporting over HTTP.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// AdapterHealth contains the state of one object adapter.
type AdapterHealth struct {
	Name      string `json:"name"`
	Lifespan  string `json:"lifespan"`
	Retention string `json:"retention"`
	Servants  int    `json:"servants"`
	Destroyed bool   `json:"destroyed"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus      `json:"system_status"`
	ManagerState string            `json:"manager_state"`
	Adapters     []AdapterHealth   `json:"adapters"`
	Checks       map[string]string `json:"checks,omitempty"`
}
