package models

import "strings"

// ProductType tags one received line by variety and destination.
type ProductType string

const (
	ProductLocaTamano        ProductType = "Loca Tamaño"
	ProductLocaProceso       ProductType = "Loca Proceso"
	ProductNegroTamano       ProductType = "Negro Tamaño"
	ProductNegroProceso      ProductType = "Negro Proceso"
	ProductAventajadoTamano  ProductType = "Aventajado Tamaño"
	ProductAventajadoProceso ProductType = "Aventajado Proceso"
	ProductDesecho           ProductType = "Desecho"
)

// ProductTypes lists every product type accepted at intake, in display order.
var ProductTypes = []ProductType{
	ProductLocaTamano,
	ProductLocaProceso,
	ProductNegroTamano,
	ProductNegroProceso,
	ProductAventajadoTamano,
	ProductAventajadoProceso,
	ProductDesecho,
}

// SizeCategory is one grading caliber.
type SizeCategory string

const (
	SizeExtra      SizeCategory = "EXTRA"
	SizePrimera    SizeCategory = "1RA"
	SizeSegunda    SizeCategory = "2DA"
	SizeTercera    SizeCategory = "3RA"
	SizeCuarta     SizeCategory = "4TA"
	SizeClaseB     SizeCategory = "CLASE B"
	SizeProceso    SizeCategory = "PROCESO"
	SizeDesecho    SizeCategory = "DESECHO"
	SizeCuartaRona SizeCategory = "4TA ROÑA"
)

// SizeCategories lists every grading caliber, in display order.
var SizeCategories = []SizeCategory{
	SizeExtra,
	SizePrimera,
	SizeSegunda,
	SizeTercera,
	SizeCuarta,
	SizeClaseB,
	SizeProceso,
	SizeDesecho,
	SizeCuartaRona,
}

// ParseProductType matches a product type case-insensitively.
func ParseProductType(value string) (ProductType, bool) {
	value = strings.TrimSpace(value)
	for _, t := range ProductTypes {
		if strings.EqualFold(string(t), value) {
			return t, true
		}
	}
	return "", false
}

// ParseSizeCategory matches a size category case-insensitively.
func ParseSizeCategory(value string) (SizeCategory, bool) {
	value = strings.TrimSpace(value)
	for _, c := range SizeCategories {
		if strings.EqualFold(string(c), value) {
			return c, true
		}
	}
	return "", false
}

// Role decides which screens a user may reach.
type Role string

const (
	RoleIntake    Role = "recepcion"
	RoleGrading   Role = "clasificacion"
	RoleSecretary Role = "secretaria"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleIntake, RoleGrading, RoleSecretary, RoleAdmin:
		return true
	default:
		return false
	}
}
