package connection

type StatusResponse struct {
	EmployeeID string `json:"employee_id"`
	Status
}

type AuthorizeResponse struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
}
