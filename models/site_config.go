package models

type HeroConfig struct {
	Badge           string `json:"badge" bson:"badge"`
	TitleLine1      string `json:"titleLine1" bson:"titleLine1"`
	TitleLine2      string `json:"titleLine2" bson:"titleLine2"`
	Description     string `json:"description" bson:"description"`
	BackgroundImage string `json:"backgroundImage" bson:"backgroundImage"`
}

type SeoConfig struct {
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	Keywords    string `json:"keywords" bson:"keywords"`
}

type ThemeConfig struct {
	PrimaryColor string `json:"primaryColor" bson:"primaryColor"`
	DarkMode     bool   `json:"darkMode" bson:"darkMode"`
}

type SocialLinks struct {
	Facebook  string `json:"facebook" bson:"facebook"`
	Twitter   string `json:"twitter" bson:"twitter"`
	LinkedIn  string `json:"linkedin" bson:"linkedin"`
	Instagram string `json:"instagram" bson:"instagram"`
}

type ContactInfo struct {
	Phone          string      `json:"phone" bson:"phone"`
	Email          string      `json:"email" bson:"email"`
	Address        string      `json:"address" bson:"address"`
	GoogleMapsLink string      `json:"googleMapsLink" bson:"googleMapsLink"`
	Socials        SocialLinks `json:"socials" bson:"socials"`
}

type SiteStats struct {
	Years      int `json:"years" bson:"years"`
	Properties int `json:"properties" bson:"properties"`
	Clients    int `json:"clients" bson:"clients"`
}

type SiteFeatures struct {
	EnableAI         bool `json:"enableAI" bson:"enableAI"`
	ShowTestimonials bool `json:"showTestimonials" bson:"showTestimonials"`
}

// SiteConfig is the editable content of the public site.
type SiteConfig struct {
	Hero     HeroConfig   `json:"hero" bson:"hero"`
	Seo      SeoConfig    `json:"seo" bson:"seo"`
	Theme    ThemeConfig  `json:"theme" bson:"theme"`
	Contact  ContactInfo  `json:"contact" bson:"contact"`
	Features SiteFeatures `json:"features" bson:"features"`
	Stats    SiteStats    `json:"stats" bson:"stats"`
	Banks    []string     `json:"banks" bson:"banks"`
}

// ThemeVars are the style variables derived from the primary color.
type ThemeVars struct {
	Primary      string `json:"--color-primary"`
	PrimaryLight string `json:"--color-primary-light"`
	PrimaryDark  string `json:"--color-primary-dark"`
}

type SiteConfigView struct {
	Config    SiteConfig `json:"config"`
	Theme     ThemeVars  `json:"theme"`
	PageTitle string     `json:"pageTitle"`
}

// DefaultSiteConfig returns a fresh copy of the shipped configuration.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		Hero: HeroConfig{
			Badge:           "IBBI Registered Valuer",
			TitleLine1:      "Precision in Every",
			TitleLine2:      "Valuation",
			Description:     "Professional surveyors delivering accurate valuations and expert property advice. Trusted by homeowners and investors for over 20 years.",
			BackgroundImage: "https://images.unsplash.com/photo-1486406146926-c627a92ad1ab?w=1800&q=80",
		},
		Seo: SeoConfig{
			Title:       "Aaditya Building Solution | Professional Surveying & Valuation",
			Description: "Professional IBBI Registered Valuers offering residential & commercial valuations.",
			Keywords:    "surveyors, valuers, IBBI, property valuation, building survey",
		},
		Theme: ThemeConfig{
			PrimaryColor: "#2563eb",
			DarkMode:     false,
		},
		Contact: ContactInfo{
			Phone:          "+91 98371 79179",
			Email:          "vr.arpitagarwal@gmail.com",
			Address:        "Santoshi Mata Mandir Wali Gali, Cheema Chauraha, Ramnagar Road, Kashipur, Uttarakhand",
			GoogleMapsLink: "https://maps.google.com/?q=Santoshi+Mata+Mandir+Wali+Gali+Cheema+Chauraha+Kashipur",
			Socials: SocialLinks{
				Facebook:  "#",
				Twitter:   "#",
				LinkedIn:  "#",
				Instagram: "#",
			},
		},
		Features: SiteFeatures{
			EnableAI:         true,
			ShowTestimonials: true,
		},
		Stats: SiteStats{
			Years:      20,
			Properties: 5000,
			Clients:    1000,
		},
		Banks: []string{
			"Bank of Baroda", "Bank of India", "Indian Bank", "Bank of Maharashtra",
			"Punjab National Bank", "Indian Overseas Bank", "UCO Bank", "Canara Bank",
			"Uttarakhand Gramin Bank", "State Bank of India", "U.S. Nagar Distt Cooperative Bank",
			"Yes Bank", "Kashipur Urban Cooperative Bank", "Axis Bank", "Jammu & Kashmir Bank",
			"Nainital Bank",
		},
	}
}
