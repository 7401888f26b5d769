package models

// Invite is a request to e-mail an invite code for a fridge to a new member
type Invite struct {
	InviteCode     string `json:"inviteCode" validate:"required,alphanum,min=4,max=32"`
	RecipientEmail string `json:"recipientEmail" validate:"required,email,max=254"`
	SenderName     string `json:"senderName" validate:"max=100,printable"`
	FridgeName     string `json:"fridgeName,omitempty" validate:"max=100,printable"`
}
