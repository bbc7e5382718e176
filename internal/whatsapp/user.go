package whatsapp

import "github.com/savoir-ai/whatsapp-assistant/internal/model"

// AuthenticateByPhone resolves the internal user for an inbound phone
// number. There is a single operator account today, so every caller
// maps onto it; the phone number is kept for reply addressing.
func AuthenticateByPhone(phoneNumber string) model.User {
	return model.User{ID: "1", Phone: phoneNumber}
}
