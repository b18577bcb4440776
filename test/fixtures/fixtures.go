package fixtures

import "github.com/nimasrn/repair-desk/internal/model"

const (
	ClientPhone  = "+385911234567"
	ClientEmail  = "ana@example.com"
	ComplusEmail = "orders@complus.example"
	DefaultEmail = "orders@partshub.example"
)

func NewClientRequest() model.ClientCreateRequest {
	return model.ClientCreateRequest{
		FullName: "Ana Horvat",
		Email:    ClientEmail,
		Phone:    ClientPhone,
		Address:  "Ilica 10",
		City:     "Zagreb",
	}
}

func NewApplianceRequest(clientID, categoryID, manufacturerID int64) model.ApplianceCreateRequest {
	return model.ApplianceCreateRequest{
		ClientID:       clientID,
		CategoryID:     categoryID,
		ManufacturerID: manufacturerID,
		Model:          "CS 1410",
		SerialNumber:   "SN-0001",
	}
}

func NewServiceRequest(clientID, applianceID int64) model.ServiceCreateRequest {
	return model.ServiceCreateRequest{
		ClientID:    clientID,
		ApplianceID: applianceID,
		Description: "drum does not spin",
	}
}

func Completed(cost float64, warrantyMonths int) model.StatusUpdateRequest {
	return model.StatusUpdateRequest{
		Status:         model.StatusCompleted,
		Cost:           &cost,
		WarrantyMonths: &warrantyMonths,
	}
}

func Status(s model.ServiceStatus) model.StatusUpdateRequest {
	return model.StatusUpdateRequest{Status: s}
}

var (
	ValidPhones = []string{
		"+385911234567",
		"+39 333 123 4567",
		"0038591123456",
	}

	InvalidPhones = []string{
		"abc",
		"12",
		"+1-800-FLOWERS",
	}
)
