package domain

type Preferences struct {
	DarkMode bool
}
