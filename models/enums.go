package models

import "sort"

// AdSlot зона размещения рекламы на экране
type AdSlot string

const (
	AdSlotScreensaver     AdSlot = "SCREENSAVER"
	AdSlotInfoSlider      AdSlot = "INFO_SLIDER"
	AdSlotWelcomeGreeting AdSlot = "WELCOME_GREETING"
	AdSlotBackground      AdSlot = "BACKGROUND"
)

// AllAdSlots фиксированный порядок зон, используется при нормализации
var AllAdSlots = []AdSlot{
	AdSlotScreensaver,
	AdSlotInfoSlider,
	AdSlotWelcomeGreeting,
	AdSlotBackground,
}

// IsValid проверяет, что значение входит в перечисление
func (s AdSlot) IsValid() bool {
	return slotOrder(s) >= 0
}

func slotOrder(s AdSlot) int {
	for i, slot := range AllAdSlots {
		if slot == s {
			return i
		}
	}
	return -1
}

// NormalizeAdSlots убирает дубликаты и сортирует зоны в порядке перечисления.
// Никогда не возвращает nil.
func NormalizeAdSlots(slots []AdSlot) []AdSlot {
	seen := make(map[AdSlot]struct{}, len(slots))
	result := make([]AdSlot, 0, len(slots))
	for _, slot := range slots {
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		result = append(result, slot)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return slotOrder(result[i]) < slotOrder(result[j])
	})
	return result
}

// PropertyType тип объекта размещения
type PropertyType string

const (
	PropertyTypeHotel    PropertyType = "HOTEL"
	PropertyTypeHospital PropertyType = "HOSPITAL"
)

func (t PropertyType) IsValid() bool {
	return t == PropertyTypeHotel || t == PropertyTypeHospital
}

// PropertyClass класс объекта
type PropertyClass string

const (
	PropertyClassStandard PropertyClass = "STANDARD"
	PropertyClassPremium  PropertyClass = "PREMIUM"
	PropertyClassLuxury   PropertyClass = "LUXURY"
)

func (c PropertyClass) IsValid() bool {
	switch c {
	case PropertyClassStandard, PropertyClassPremium, PropertyClassLuxury:
		return true
	}
	return false
}

// ScreenOrientation ориентация экрана
type ScreenOrientation string

const (
	OrientationLandscape ScreenOrientation = "LANDSCAPE"
	OrientationPortrait  ScreenOrientation = "PORTRAIT"
)

func (o ScreenOrientation) IsValid() bool {
	return o == OrientationLandscape || o == OrientationPortrait
}

// ScreenStatus рабочий статус экрана (ONLINE <-> OFFLINE)
type ScreenStatus string

const (
	ScreenStatusOnline  ScreenStatus = "ONLINE"
	ScreenStatusOffline ScreenStatus = "OFFLINE"
)

func (s ScreenStatus) IsValid() bool {
	return s == ScreenStatusOnline || s == ScreenStatusOffline
}

// RoomCategory категория помещения, где установлен экран
type RoomCategory string

const (
	RoomLobby       RoomCategory = "LOBBY"
	RoomStandard    RoomCategory = "STANDARD_ROOM"
	RoomSuite       RoomCategory = "SUITE"
	RoomWard        RoomCategory = "WARD"
	RoomWaitingRoom RoomCategory = "WAITING_ROOM"
	RoomRestaurant  RoomCategory = "RESTAURANT"
)

func (r RoomCategory) IsValid() bool {
	switch r {
	case RoomLobby, RoomStandard, RoomSuite, RoomWard, RoomWaitingRoom, RoomRestaurant:
		return true
	}
	return false
}

// Role роль пользователя
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleAdvertiser Role = "ADVERTISER"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleAdvertiser:
		return true
	}
	return false
}
