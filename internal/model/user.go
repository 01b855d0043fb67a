package model

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FullName     string `json:"full_name"`
	IsActive     bool   `json:"is_active"`
	IsSuperuser  bool   `json:"is_superuser"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}
