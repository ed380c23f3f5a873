package masterdata

// Kind names one lookup table. Employees and threshold criteria reference
// both by id.
type Kind struct {
	Table string
	IDCol string
	Label string
}

var (
	Organizations = Kind{Table: "organizations", IDCol: "organization_id", Label: "organization"}
	Categories    = Kind{Table: "employee_categories", IDCol: "category_id", Label: "employee category"}
)

type Entry struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type NameRequest struct {
	Name string `json:"name" binding:"required"`
}
