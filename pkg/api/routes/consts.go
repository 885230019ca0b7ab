package routes

// Tag groups operations in the generated OpenAPI document.
type Tag string

const (
	TagAuth Tag = "Auth"
	TagIam  Tag = "IAM"
	TagOps  Tag = "Ops"
)

func (t Tag) String() string {
	return string(t)
}

// BearerAuth marks an operation as accepting the bearer security
// scheme declared on the API config.
var BearerAuth = []map[string][]string{
	{"bearer": {}},
}
