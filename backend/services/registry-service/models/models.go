package models

type NewUserRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	AadhaarNumber string `json:"aadhaar_number"`
}

type RechargeRequest struct {
	BankTransactionID string `json:"bank_transaction_id"`
}

type PropertyRegistrationRequest struct {
	PropertyID         string `json:"property_id"`
	Price              int64  `json:"price"`
	Status             string `json:"status"` // requested, registered or onSale; stored as REQUESTED
	OwnerName          string `json:"owner_name"`
	OwnerAadhaarNumber string `json:"owner_aadhaar_number"`
}

type UpdatePropertyRequest struct {
	Status             string `json:"status"` // registered or onSale
	OwnerName          string `json:"owner_name"`
	OwnerAadhaarNumber string `json:"owner_aadhaar_number"`
}

type PurchaseRequest struct {
	BuyerName          string `json:"buyer_name"`
	BuyerAadhaarNumber string `json:"buyer_aadhaar_number"`
}
