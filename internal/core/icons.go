package core

// Icon identifies one of the built-in category icons. The set is closed:
// unknown names resolve to IconOther instead of failing, so stored data can
// never break rendering.
type Icon string

const (
	IconWallet        Icon = "wallet"
	IconTrendingUp    Icon = "trending-up"
	IconTrendingDown  Icon = "trending-down"
	IconUtensils      Icon = "utensils"
	IconCar           Icon = "car"
	IconShoppingBag   Icon = "shopping-bag"
	IconReceipt       Icon = "receipt"
	IconSmile         Icon = "smile"
	IconHeart         Icon = "heart"
	IconGraduationCap Icon = "graduation-cap"
	IconBriefcase     Icon = "briefcase"
	IconGift          Icon = "gift"
	IconPiggyBank     Icon = "piggy-bank"
	IconOther         Icon = "other"
)

var icons = map[Icon]struct{}{
	IconWallet:        {},
	IconTrendingUp:    {},
	IconTrendingDown:  {},
	IconUtensils:      {},
	IconCar:           {},
	IconShoppingBag:   {},
	IconReceipt:       {},
	IconSmile:         {},
	IconHeart:         {},
	IconGraduationCap: {},
	IconBriefcase:     {},
	IconGift:          {},
	IconPiggyBank:     {},
	IconOther:         {},
}

// ParseIcon maps a stored icon name onto the closed icon set.
func ParseIcon(s string) Icon {
	if _, ok := icons[Icon(s)]; ok {
		return Icon(s)
	}
	return IconOther
}

// Valid reports whether the icon belongs to the supported set.
func (i Icon) Valid() bool {
	_, ok := icons[i]
	return ok
}
