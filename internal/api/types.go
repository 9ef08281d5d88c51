package api

type MetadataResponse struct {
	ID           string  `json:"id"`
	Object       string  `json:"object"`
	CreatedAt    int64   `json:"created_at"`
	LittleEndian bool    `json:"little_endian"`
	ByteOrder    string  `json:"byte_order"`
	Fields       []Field `json:"fields"`
}

type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type ValueResponse struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	Tag    string `json:"tag"`
	Value  string `json:"value"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	OpenHandles int    `json:"open_handles"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

type errorEnvelope struct {
	Error ResponseError `json:"error"`
}
