package api

type Person struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type Collection struct {
	Locked bool     `json:"locked"`
	Count  int      `json:"count"`
	People []Person `json:"people"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

type UnlockRequest struct {
	Password string `json:"password"`
}

type PasswordRequest struct {
	Current  string `json:"current"`
	Password string `json:"password" binding:"required"`
}

type LockState struct {
	Locked      bool `json:"locked"`
	HasPassword bool `json:"hasPassword"`
}
