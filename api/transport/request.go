package transport

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	CPF         string `json:"cpf"`
	Password    string `json:"password"`
	ImageURL    string `json:"imageUrl"`
}

// ProfileUpdateRequest overwrites all three fields; callers repeat current
// values for fields they do not mean to change.
type ProfileUpdateRequest struct {
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	CPF         string `json:"cpf"`
}

type PasswordUpdateRequest struct {
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

type ImageUpdateRequest struct {
	ImageURL string `json:"imageUrl"`
}
