package internal

import "fmt"

// Account holds the credentials a backend needs to reach a remote calendar
// store, e.g. the serialized OAuth token for Google.
type Account struct {
	Platform string
	Name     string
	Auth     string
}

func (a Account) ID() string {
	return a.Platform + "/" + a.Name
}

type Calendar struct {
	ID       string
	Title    string
	Color    string
	Source   string
	ReadOnly bool
}

func (c Calendar) String() string {
	if c.Title == "" {
		return c.ID
	}
	return fmt.Sprintf("%s (%s)", c.Title, c.ID)
}
