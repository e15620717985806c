package models

// Department is one entry in the CNE department catalog.
type Department struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Departments lists the 18 departments plus the overseas vote, using the
// codes the CNE portal assigns them. Code 19 is unused by the portal.
var Departments = []Department{
	{Code: "01", Name: "Atlantida"},
	{Code: "02", Name: "Colon"},
	{Code: "03", Name: "Comayagua"},
	{Code: "04", Name: "Copan"},
	{Code: "05", Name: "Cortes"},
	{Code: "06", Name: "Choluteca"},
	{Code: "07", Name: "El_Paraiso"},
	{Code: "08", Name: "Francisco_Morazan"},
	{Code: "09", Name: "Gracias_a_Dios"},
	{Code: "10", Name: "Intibuca"},
	{Code: "11", Name: "Islas_de_la_Bahia"},
	{Code: "12", Name: "La_Paz"},
	{Code: "13", Name: "Lempira"},
	{Code: "14", Name: "Ocotepeque"},
	{Code: "15", Name: "Olancho"},
	{Code: "16", Name: "Santa_Barbara"},
	{Code: "17", Name: "Valle"},
	{Code: "18", Name: "Yoro"},
	{Code: "20", Name: "Voto_Exterior"},
}

// DepartmentName resolves a department code to its catalog name.
// Unknown codes return the empty string.
func DepartmentName(code string) string {
	for _, d := range Departments {
		if d.Code == code {
			return d.Name
		}
	}
	return ""
}

// DefaultZoneName maps zone codes to names when the portal payload omits one.
func DefaultZoneName(code string) string {
	switch code {
	case "01":
		return "URBANA"
	case "02":
		return "RURAL"
	default:
		return "Desconocida"
	}
}
