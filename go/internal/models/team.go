package models

import "strings"

// Team is one franchise a participant can manage inside a room.
type Team struct {
	Abbr      string `json:"abbr"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	TextColor string `json:"text_color"`
}

// Teams is the fixed franchise catalog. A room never holds two participants on the same team.
var Teams = []Team{
	{Abbr: "CSK", Name: "Chennai Super Kings", Color: "#ffc107", TextColor: "#000"},
	{Abbr: "MI", Name: "Mumbai Indians", Color: "#004ba0", TextColor: "#fff"},
	{Abbr: "RCB", Name: "Royal Challengers", Color: "#d32f2f", TextColor: "#fff"},
	{Abbr: "KKR", Name: "Kolkata Knight Riders", Color: "#512da8", TextColor: "#ffc107"},
	{Abbr: "DC", Name: "Delhi Capitals", Color: "#2196f3", TextColor: "#fff"},
	{Abbr: "PBKS", Name: "Punjab Kings", Color: "#e53935", TextColor: "#fff"},
	{Abbr: "RR", Name: "Rajasthan Royals", Color: "#e91e63", TextColor: "#fff"},
	{Abbr: "SRH", Name: "Sunrisers Hyderabad", Color: "#ff6f00", TextColor: "#000"},
	{Abbr: "GT", Name: "Gujarat Titans", Color: "#424242", TextColor: "#00bcd4"},
	{Abbr: "LSG", Name: "Lucknow Super Giants", Color: "#00acc1", TextColor: "#fff"},
}

// LookupTeam finds a franchise by abbreviation (case-insensitive).
func LookupTeam(abbr string) (Team, bool) {
	for _, t := range Teams {
		if strings.EqualFold(t.Abbr, abbr) {
			return t, true
		}
	}
	return Team{}, false
}
