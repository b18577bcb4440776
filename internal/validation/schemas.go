package validation

const (
	Login             = "login"
	UserCreate        = "user_create"
	ClientCreate      = "client_create"
	ApplianceCreate   = "appliance_create"
	CustomerAppliance = "customer_appliance_create"
	ReferenceCreate   = "reference_create"
	ServiceCreate     = "service_create"
	CustomerService   = "customer_service_create"
	ServiceUpdate     = "service_update"
	StatusUpdate      = "status_update"
	Assign            = "assign"
	SparePart         = "spare_part"
	StockUpdate       = "stock_update"
	PushSubscribe     = "push_subscribe"
	PushUnsubscribe   = "push_unsubscribe"
	Broadcast         = "broadcast"
	WebVital          = "web_vital"
)

type obj = map[string]interface{}

func str(maxLen int) obj {
	return obj{"type": "string", "maxLength": maxLen}
}

func requiredStr(maxLen int) obj {
	return obj{"type": "string", "minLength": 1, "maxLength": maxLen}
}

func id() obj {
	return obj{"type": "integer", "minimum": 1}
}

func nullable(t string) obj {
	return obj{"type": []interface{}{t, "null"}}
}

var dateTime = obj{"type": []interface{}{"string", "null"}, "format": "date-time"}

var statusEnum = []interface{}{"pending", "assigned", "scheduled", "in_progress", "waiting_parts", "completed", "cancelled"}

var availabilityEnum = []interface{}{"available", "out_of_stock", "on_order", "discontinued"}

var requestSchemas = map[string]map[string]interface{}{
	Login: {
		"type":     "object",
		"required": []interface{}{"username", "password"},
		"properties": obj{
			"username": requiredStr(64),
			"password": requiredStr(128),
		},
	},
	UserCreate: {
		"type":     "object",
		"required": []interface{}{"username", "password", "role"},
		"properties": obj{
			"username":      obj{"type": "string", "pattern": "^[a-zA-Z0-9_.-]{3,64}$"},
			"password":      obj{"type": "string", "minLength": 8, "maxLength": 128},
			"email":         obj{"type": "string", "maxLength": 255},
			"phone":         str(32),
			"role":          obj{"type": "string", "pattern": "^(admin|technician|customer|business_partner|supplier_[a-z]+)$"},
			"full_name":     str(255),
			"supplier_name": str(255),
		},
	},
	ClientCreate: {
		"type":     "object",
		"required": []interface{}{"full_name", "phone"},
		"properties": obj{
			"full_name":    requiredStr(255),
			"email":        str(255),
			"phone":        obj{"type": "string", "pattern": `^\+?[0-9 ()-]{6,20}$`},
			"address":      str(255),
			"city":         str(128),
			"postal_code":  str(16),
			"company_name": str(255),
			"user_id":      nullable("integer"),
		},
	},
	ApplianceCreate: {
		"type":     "object",
		"required": []interface{}{"client_id", "category_id", "manufacturer_id"},
		"properties": obj{
			"client_id":       id(),
			"category_id":     id(),
			"manufacturer_id": id(),
			"model":           str(128),
			"serial_number":   str(128),
			"purchase_date":   dateTime,
			"notes":           str(4000),
		},
	},
	CustomerAppliance: {
		"type":     "object",
		"required": []interface{}{"category_id", "manufacturer_id"},
		"properties": obj{
			"category_id":     id(),
			"manufacturer_id": id(),
			"model":           str(128),
			"serial_number":   str(128),
			"purchase_date":   dateTime,
			"notes":           str(4000),
		},
	},
	ReferenceCreate: {
		"type":       "object",
		"required":   []interface{}{"name"},
		"properties": obj{"name": requiredStr(128)},
	},
	ServiceCreate: {
		"type":     "object",
		"required": []interface{}{"client_id", "appliance_id", "description"},
		"properties": obj{
			"client_id":      id(),
			"appliance_id":   id(),
			"technician_id":  nullable("integer"),
			"description":    requiredStr(4000),
			"scheduled_date": dateTime,
		},
	},
	CustomerService: {
		"type":     "object",
		"required": []interface{}{"appliance_id", "description"},
		"properties": obj{
			"appliance_id":   id(),
			"description":    requiredStr(4000),
			"scheduled_date": dateTime,
		},
	},
	ServiceUpdate: {
		"type": "object",
		"properties": obj{
			"description":      obj{"type": []interface{}{"string", "null"}, "minLength": 1, "maxLength": 4000},
			"scheduled_date":   dateTime,
			"cost":             obj{"type": []interface{}{"number", "null"}, "minimum": 0},
			"warranty_months":  obj{"type": []interface{}{"integer", "null"}, "minimum": 0, "maximum": 120},
			"technician_notes": nullable("string"),
			"used_parts":       nullable("string"),
		},
	},
	StatusUpdate: {
		"type":     "object",
		"required": []interface{}{"status"},
		"properties": obj{
			"status":          obj{"type": "string", "enum": statusEnum},
			"notes":           nullable("string"),
			"technician_id":   nullable("integer"),
			"cost":            obj{"type": []interface{}{"number", "null"}, "minimum": 0},
			"warranty_months": obj{"type": []interface{}{"integer", "null"}, "minimum": 0, "maximum": 120},
			"used_parts":      nullable("string"),
		},
	},
	Assign: {
		"type":     "object",
		"required": []interface{}{"technician_id"},
		"properties": obj{
			"technician_id":  id(),
			"scheduled_date": dateTime,
		},
	},
	SparePart: {
		"type":     "object",
		"required": []interface{}{"part_number", "part_name"},
		"properties": obj{
			"part_number":       requiredStr(128),
			"part_name":         requiredStr(255),
			"description":       str(4000),
			"category":          str(128),
			"manufacturer":      str(128),
			"compatible_models": str(4000),
			"purchase_price":    obj{"type": []interface{}{"number", "null"}, "minimum": 0},
			"selling_price":     obj{"type": []interface{}{"number", "null"}, "minimum": 0},
			"currency":          obj{"type": "string", "pattern": "^[A-Z]{3}$"},
			"availability":      obj{"type": "string", "enum": availabilityEnum},
			"stock_quantity":    obj{"type": "integer", "minimum": 0},
			"min_stock_level":   obj{"type": "integer", "minimum": 0},
			"supplier_name":     str(255),
			"supplier_url":      str(2048),
			"image_url":         str(2048),
		},
	},
	StockUpdate: {
		"type":     "object",
		"required": []interface{}{"stock_quantity"},
		"properties": obj{
			"stock_quantity": obj{"type": "integer", "minimum": 0},
			"availability":   obj{"type": "string", "enum": availabilityEnum},
		},
	},
	PushSubscribe: {
		"type":     "object",
		"required": []interface{}{"endpoint", "keys"},
		"properties": obj{
			"endpoint": obj{"type": "string", "pattern": "^https://"},
			"keys": obj{
				"type":     "object",
				"required": []interface{}{"p256dh", "auth"},
				"properties": obj{
					"p256dh": requiredStr(255),
					"auth":   requiredStr(255),
				},
			},
		},
	},
	PushUnsubscribe: {
		"type":       "object",
		"required":   []interface{}{"endpoint"},
		"properties": obj{"endpoint": requiredStr(2048)},
	},
	Broadcast: {
		"type":     "object",
		"required": []interface{}{"title", "message"},
		"properties": obj{
			"user_ids": obj{"type": "array", "items": id()},
			"role":     nullable("string"),
			"title":    requiredStr(255),
			"message":  requiredStr(2000),
			"priority": obj{"type": "string", "enum": []interface{}{"low", "normal", "high", "urgent"}},
		},
	},
	WebVital: {
		"type":     "object",
		"required": []interface{}{"name", "value"},
		"properties": obj{
			"name":   obj{"type": "string", "enum": []interface{}{"CLS", "FCP", "FID", "INP", "LCP", "TTFB"}},
			"value":  obj{"type": "number", "minimum": 0},
			"page":   str(255),
			"rating": obj{"type": "string", "enum": []interface{}{"good", "needs-improvement", "poor"}},
		},
	},
}
