package templates

// Template keys shared with the notification planner.
const (
	KeyServiceCreated          = "service_created"
	KeyTechnicianAssigned      = "technician_assigned"
	KeyJobAssigned             = "job_assigned"
	KeyServiceScheduled        = "service_scheduled"
	KeyTechnicianOnWay         = "technician_on_way"
	KeyWaitingParts            = "waiting_parts"
	KeyServiceCompleted        = "service_completed"
	KeyServiceCancelled        = "service_cancelled"
	KeyPartsRequest            = "parts_request"
	KeyPartnerServiceCompleted = "partner_service_completed"
	KeyBroadcast               = "broadcast"
)

var smsTemplates = map[string]string{
	KeyServiceCreated:     "{{company_name}}: hi {{customer_name}}, repair request #{{service_id}} for your {{appliance}} is registered. We will call you to book a visit.",
	KeyTechnicianAssigned: "{{company_name}}: technician {{technician_name}} is assigned to repair #{{service_id}} ({{appliance}}). Info: {{company_phone}}",
	KeyJobAssigned:        "New job #{{service_id}}: {{appliance}} at {{client_address}}. Customer {{customer_name}} {{customer_phone}}",
	KeyServiceScheduled:   "{{company_name}}: visit for repair #{{service_id}} booked on {{date}} at {{time}}. To reschedule call {{company_phone}}",
	KeyTechnicianOnWay:    "{{company_name}}: {{technician_name}} is on the way for repair #{{service_id}}. Please make the {{appliance}} accessible.",
	KeyWaitingParts:       "{{company_name}}: repair #{{service_id}} is waiting for spare parts. We will contact you when they arrive.",
	KeyServiceCompleted:   "{{company_name}}: repair #{{service_id}} completed. Total {{cost}} EUR, warranty {{warranty_months}} months. Thank you!",
	KeyServiceCancelled:   "{{company_name}}: repair #{{service_id}} for your {{appliance}} was cancelled. Questions? Call {{company_phone}}",
}

var whatsappTemplates = map[string]string{
	KeyServiceScheduled: "Hello {{customer_name}},\n\nyour appointment for repair *#{{service_id}}* is confirmed.\n\n" +
		"Appliance: {{appliance}}\nDate: {{date}}\nTime: {{time}}\nTechnician: {{technician_name}}\n\n" +
		"Please make sure the appliance is reachable. To reschedule reply to this message or call {{company_phone}}.\n\n{{company_name}}",
	KeyServiceCompleted: "Hello {{customer_name}},\n\nrepair *#{{service_id}}* on your {{appliance}} is completed.\n\n" +
		"Total: {{cost}} EUR\nWarranty: {{warranty_months}} months\n\nThank you for choosing {{company_name}}.",
}

type pair struct {
	subject string
	body    string
}

var emailTemplates = map[string]pair{
	KeyServiceCompleted: {
		subject: "Repair #{{service_id}} completed",
		body: "Dear {{customer_name}},\n\n" +
			"the repair of your {{appliance}} (request #{{service_id}}) was completed on {{completed_date}}.\n\n" +
			"Total cost: {{cost}} EUR\nWarranty: {{warranty_months}} months\nNotes: {{technician_notes}}\n\n" +
			"Kind regards,\n{{company_name}}",
	},
	KeyPartsRequest: {
		subject: "Parts request for repair #{{service_id}} ({{manufacturer}})",
		body: "Hello {{supplier_name}},\n\n" +
			"we need spare parts for repair #{{service_id}}.\n\n" +
			"Manufacturer: {{manufacturer}}\nModel: {{model}}\nSerial number: {{serial_number}}\n" +
			"Parts: {{parts}}\nTechnician notes: {{technician_notes}}\n\n" +
			"Please reply with availability and delivery time.\n\n{{company_name}}",
	},
	KeyPartnerServiceCompleted: {
		subject: "Service #{{service_id}} for {{customer_name}} completed",
		body: "Hello {{partner_name}},\n\n" +
			"the service #{{service_id}} you opened for {{customer_name}} ({{appliance}}) is completed.\n\n" +
			"Total cost: {{cost}} EUR\nWarranty: {{warranty_months}} months\n\n{{company_name}}",
	},
}

var pushTemplates = map[string]pair{
	KeyJobAssigned:        {subject: "New job #{{service_id}}", body: "{{appliance}} at {{client_address}}"},
	KeyServiceScheduled:   {subject: "Job #{{service_id}} scheduled", body: "{{date}} {{time}}, {{appliance}}"},
	KeyServiceCancelled:   {subject: "Job #{{service_id}} cancelled", body: "{{customer_name}} cancelled the repair of the {{appliance}}"},
	KeyBroadcast:          {subject: "{{title}}", body: "{{message}}"},
	KeyWaitingParts:       {subject: "Job #{{service_id}} waiting for parts", body: "{{appliance}}: {{parts}}"},
	KeyServiceCompleted:   {subject: "Job #{{service_id}} completed", body: "{{appliance}} for {{customer_name}}"},
	KeyServiceCreated:     {subject: "New service #{{service_id}}", body: "{{customer_name}}: {{appliance}}"},
	KeyTechnicianOnWay:    {subject: "Job #{{service_id}} in progress", body: "{{appliance}}"},
	KeyTechnicianAssigned: {subject: "Job #{{service_id}} assigned", body: "{{technician_name}}"},
}
