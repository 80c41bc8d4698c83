package domain

import "fmt"

// Room is the kind of room shown in the source photo.
type Room string

const (
	RoomLivingRoom Room = "living_room"
	RoomDiningRoom Room = "dining_room"
	RoomBedroom    Room = "bedroom"
	RoomBathroom   Room = "bathroom"
	RoomOffice     Room = "office"
	RoomGamingRoom Room = "gaming_room"
)

// Rooms lists every supported room in display order.
var Rooms = []Room{
	RoomLivingRoom,
	RoomDiningRoom,
	RoomBedroom,
	RoomBathroom,
	RoomOffice,
	RoomGamingRoom,
}

// Theme is a design style applied to the room.
type Theme string

const (
	ThemeModern        Theme = "Modern"
	ThemeTraditional   Theme = "Traditional"
	ThemeContemporary  Theme = "Contemporary"
	ThemeFarmhouse     Theme = "Farmhouse"
	ThemeRustic        Theme = "Rustic"
	ThemeMidCentury    Theme = "MidCentury"
	ThemeMediterranean Theme = "Mediterranean"
	ThemeIndustrial    Theme = "Industrial"
	ThemeScandinavian  Theme = "Scandinavian"
)

// Themes lists every supported theme in display order.
var Themes = []Theme{
	ThemeModern,
	ThemeTraditional,
	ThemeContemporary,
	ThemeFarmhouse,
	ThemeRustic,
	ThemeMidCentury,
	ThemeMediterranean,
	ThemeIndustrial,
	ThemeScandinavian,
}

// MaxThemesPerRequest caps how many themes one upload may be rendered in.
const MaxThemesPerRequest = 4

// Valid reports whether r is one of the supported rooms.
func (r Room) Valid() bool {
	for _, v := range Rooms {
		if v == r {
			return true
		}
	}
	return false
}

// Valid reports whether t is one of the supported themes.
func (t Theme) Valid() bool {
	for _, v := range Themes {
		if v == t {
			return true
		}
	}
	return false
}

// ParseRoom converts s into a Room. Matching is exact.
func ParseRoom(s string) (Room, error) {
	r := Room(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown room %q", s)
	}
	return r, nil
}

// ParseTheme converts s into a Theme. Matching is exact.
func ParseTheme(s string) (Theme, error) {
	t := Theme(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown theme %q", s)
	}
	return t, nil
}
