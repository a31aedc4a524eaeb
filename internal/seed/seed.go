package seed

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/campusbooks/marketplace/internal/hash"
	"github.com/campusbooks/marketplace/internal/models"
)

var catalog = []models.Product{
	{
		Slug:             "calc-made-easy",
		Name:             "Calculus Made Easy (3rd Ed.)",
		Price:            29.50,
		ShortDescription: "Lightly highlighted copy of Thompson & Gardner's classic reference. Perfect for MAT301 and MAT302.",
		Description:      "Ships with the laminated formula card and a handful of professor notes tucked inside the back cover. Pages are clean, binding is tight, and only 12 pages contain pencil annotations that can be erased.",
		Headline:         "A step-by-step refresher for STEM majors",
		Specs: []string{
			"Author: Silvanus P. Thompson & Martin Gardner",
			"ISBN: 978-1259586130",
			"Condition: Good (minor pencil notes)",
			"Format: Paperback, includes formula card",
		},
		Image:  "https://m.media-amazon.com/images/I/410KfWepEFL._AC_UF1000,1000_QL80_.jpg",
		Status: models.ProductAvailable,
	},
	{
		Slug:             "psych-exploration",
		Name:             "Psychology: An Exploration (4th Ed.)",
		Price:            42.00,
		ShortDescription: "Used in PSY 100. Includes untouched MyLab access code still sealed in the sleeve.",
		Description:      "Cover shows slight shelf wear, but the interior is pristine. Great option if you want the latest DSM-5 updates without paying bookstore pricing.",
		Headline:         "Everything you need for Intro to Psychology",
		Specs: []string{
			"Author: Saundra Ciccarelli & J. Noland White",
			"ISBN: 978-0134636850",
			"Condition: Very Good",
			"Bonus: Unused MyLab code included",
		},
		Image:  "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcQIjCInaE148oimdx5nUC1G61Kl_cZBN6D6TQ&s",
		Status: models.ProductAvailable,
	},
	{
		Slug:             "python-workshop",
		Name:             "Python Crash Course (2nd Ed.)",
		Price:            25.75,
		ShortDescription: "Ideal for CSC 101 lab sections. Code samples are flagged with sticky notes for quick reference.",
		Description:      "Well-kept paperback with no coffee stains or loose pages. Comes with a printed cheat sheet of common terminal commands created by the previous owner.",
		Headline:         "Kick-start your first programming portfolio",
		Specs: []string{
			"Author: Eric Matthes",
			"ISBN: 978-1593279288",
			"Condition: Excellent",
			"Extras: Laminated quick reference sheet",
		},
		Image:  "https://m.media-amazon.com/images/I/71pys4B4OVL._AC_UF1000,1000_QL80_.jpg",
		Status: models.ProductAvailable,
	},
	{
		Slug:             "human-anatomy",
		Name:             "Human Anatomy & Physiology (11th Ed.)",
		Price:            68.00,
		ShortDescription: "Required for BIO 425. Comes with a lightly used lab manual and intact diagrams.",
		Description:      "Spiral binding is still sturdy, tabs have been added for each body system, and the lab manual only has two completed exercises.",
		Headline:         "Study-ready visuals for pre-nursing tracks",
		Specs: []string{
			"Author: Elaine N. Marieb & Katja Hoehn",
			"ISBN: 978-0134580993",
			"Condition: Very Good",
			"Includes: Lab manual + tab set",
		},
		Image:  "https://m.media-amazon.com/images/I/81bIGIKwOML._AC_UF1000,1000_QL80_.jpg",
		Status: models.ProductAvailable,
	},
	{
		Slug:             "public-speaking",
		Name:             "The Art of Public Speaking (13th Ed.)",
		Price:            19.25,
		ShortDescription: "Helpful for SPE 100. Margin notes emphasize delivery tips from Professor Singh's lectures.",
		Description:      "Sticker residue on the cover, otherwise in solid shape. Includes a printed rubric template to guide practice speeches.",
		Headline:         "Confidence-building tips from a fellow Bearcat",
		Specs: []string{
			"Author: Stephen Lucas",
			"ISBN: 978-1260412932",
			"Condition: Good",
			"Bonus: Speech outline template",
		},
		Image:  "https://m.media-amazon.com/images/I/81qt2t60JbL._AC_UF1000,1000_QL80_.jpg",
		Status: models.ProductAvailable,
	},
}

// Run loads the starter catalog and the admin account into an empty
// database. Existing rows are left alone, so it is safe to call on
// every boot.
func Run(db *gorm.DB, adminPassword string) error {
	var products int64
	if err := db.Model(&models.Product{}).Count(&products).Error; err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if products == 0 {
		for i := range catalog {
			if err := db.Create(&catalog[i]).Error; err != nil {
				return fmt.Errorf("seed product %q: %w", catalog[i].Slug, err)
			}
		}
	}

	if adminPassword == "" {
		return nil
	}

	var admins int64
	if err := db.Model(&models.User{}).Where("role = ?", "admin").Count(&admins).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		return nil
	}

	passwordHash, err := hash.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Username:     "admin",
		PasswordHash: passwordHash,
		Role:         "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
