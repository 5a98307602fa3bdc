package respond

// UserRespond 候选对端用户
type UserRespond struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	ImageUrl string `json:"imageUrl"`
}
