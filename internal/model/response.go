package model

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type UserEnvelope struct {
	Status string        `json:"status"`
	Data   *UserResponse `json:"data"`
}

type ProductEnvelope struct {
	Status string   `json:"status"`
	Data   *Product `json:"data"`
}

type ProductListEnvelope struct {
	Status  string    `json:"status"`
	Results int       `json:"results"`
	Data    []Product `json:"data"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
