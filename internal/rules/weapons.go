package rules

// Weapon category membership. Lookups are lowercase identifiers as emitted
// by the upstream demo stage. P90, XM1014, AWP, and Zeus carry their own
// rewards and are matched before these sets.

var knifeWeapons = map[string]bool{
	"knife": true, "knife_t": true, "knife_ct": true, "bayonet": true,
	"knife_karambit": true, "knife_m9_bayonet": true, "knife_flip": true,
	"knife_gut": true, "knife_falchion": true, "knife_bowie": true,
	"knife_butterfly": true, "knife_push": true, "knife_cord": true,
	"knife_canis": true, "knife_ursus": true, "knife_gypsy_jackknife": true,
	"knife_outdoor": true, "knife_stiletto": true, "knife_widowmaker": true,
	"knife_css": true, "knife_skeleton": true,
}

var smgWeapons = map[string]bool{
	"mac10": true, "mp7": true, "mp5sd": true, "mp9": true,
	"bizon": true, "ump45": true,
}

var shotgunWeapons = map[string]bool{
	"nova": true, "mag7": true, "sawedoff": true,
}

var rifleWeapons = map[string]bool{
	"ak47": true, "m4a1": true, "m4a1_silencer": true, "famas": true,
	"galil": true, "aug": true, "sg556": true, "scar20": true, "g3sg1": true,
}

var pistolWeapons = map[string]bool{
	"glock": true, "usp_silencer": true, "p2000": true, "p250": true,
	"fiveseven": true, "tec9": true, "cz75a": true, "deagle": true,
	"revolver": true, "elite": true, "hkp2000": true,
}

var grenadeWeapons = map[string]bool{
	"hegrenade": true, "flashbang": true, "smokegrenade": true,
	"incgrenade": true, "molotov": true, "decoy": true,
}
