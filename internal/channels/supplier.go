package channels

import "strings"

const ComplusSupplier = "Com Plus"

// complusBrands are handled by the Com Plus distributor.
var complusBrands = map[string]struct{}{
	"electrolux": {},
	"elica":      {},
	"candy":      {},
	"hoover":     {},
	"turbo air":  {},
}

func IsComplusBrand(manufacturer string) bool {
	m := strings.ToLower(strings.Join(strings.Fields(manufacturer), " "))
	_, ok := complusBrands[m]
	return ok
}

// SupplierContact is where parts requests for a manufacturer are sent.
type SupplierContact struct {
	Name  string
	Email string
}

type SupplierRouter struct {
	DefaultName  string
	DefaultEmail string
	ComplusEmail string
}

func (r SupplierRouter) Route(manufacturer string) SupplierContact {
	if IsComplusBrand(manufacturer) && r.ComplusEmail != "" {
		return SupplierContact{Name: ComplusSupplier, Email: r.ComplusEmail}
	}
	name := r.DefaultName
	if name == "" {
		name = "Default supplier"
	}
	return SupplierContact{Name: name, Email: r.DefaultEmail}
}
