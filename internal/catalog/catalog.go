// Package catalog holds the static course catalog. It is consumed read-only;
// the cart copies snapshots of entries at add-time and never holds live
// references into it.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dhir4j/skillnation/internal/models"
)

// Catalog is an in-memory, read-only course list
type Catalog struct {
	courses []models.Course
	byID    map[int64]*models.Course
}

// New creates a catalog from the given courses, indexed by ID
func New(courses []models.Course) *Catalog {
	c := &Catalog{
		courses: courses,
		byID:    make(map[int64]*models.Course, len(courses)),
	}
	for i := range c.courses {
		c.byID[c.courses[i].ID] = &c.courses[i]
	}
	return c
}

// Default returns the catalog with the stock course list
func Default() *Catalog {
	return New(defaultCourses())
}

// All returns every course in catalog order
func (c *Catalog) All() []models.Course {
	out := make([]models.Course, len(c.courses))
	copy(out, c.courses)
	return out
}

// ByID returns the course with the given ID
func (c *Catalog) ByID(id int64) (*models.Course, error) {
	course, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("course not found: %d", id)
	}
	return course, nil
}

func price(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func defaultCourses() []models.Course {
	return []models.Course{
		{
			ID:               1,
			Title:            "Full Stack Web Development",
			ShortDescription: "Master modern web development with React, Node.js, and MongoDB",
			Price:            price(4999),
			Duration:         "12 weeks",
			Level:            "Beginner to Advanced",
			Category:         "Web Development",
			Instructor:       "Dr. Alex Kumar",
		},
		{
			ID:               2,
			Title:            "Mobile App Development with React Native",
			ShortDescription: "Build cross-platform mobile apps for iOS and Android",
			Price:            price(5499),
			Duration:         "10 weeks",
			Level:            "Intermediate",
			Category:         "Mobile Development",
			Instructor:       "Sarah Martinez",
		},
		{
			ID:               3,
			Title:            "Cybersecurity and Ethical Hacking",
			ShortDescription: "Learn to identify and prevent security vulnerabilities",
			Price:            price(6999),
			Duration:         "14 weeks",
			Level:            "Intermediate to Advanced",
			Category:         "Cybersecurity",
			Instructor:       "James Chen",
		},
		{
			ID:               4,
			Title:            "Cloud Computing with AWS",
			ShortDescription: "Master Amazon Web Services and cloud architecture",
			Price:            price(5999),
			Duration:         "12 weeks",
			Level:            "Intermediate",
			Category:         "Cloud Computing",
			Instructor:       "Dr. Alex Kumar",
		},
		{
			ID:               5,
			Title:            "Data Science & Machine Learning",
			ShortDescription: "Learn Python, ML algorithms, and data analysis",
			Price:            price(6499),
			Duration:         "16 weeks",
			Level:            "Beginner to Advanced",
			Category:         "Data Science",
			Instructor:       "James Chen",
		},
		{
			ID:               6,
			Title:            "DevOps Engineering Bootcamp",
			ShortDescription: "Master CI/CD, Docker, Kubernetes, and automation",
			Price:            price(6499),
			Duration:         "14 weeks",
			Level:            "Intermediate to Advanced",
			Category:         "DevOps",
			Instructor:       "Sarah Martinez",
		},
		{
			ID:               7,
			Title:            "Blockchain Development",
			ShortDescription: "Build decentralized applications and smart contracts",
			Price:            price(7999),
			Duration:         "12 weeks",
			Level:            "Advanced",
			Category:         "Blockchain",
			Instructor:       "Dr. Alex Kumar",
		},
		{
			ID:               8,
			Title:            "UI/UX Design Masterclass",
			ShortDescription: "Design beautiful and user-friendly interfaces",
			Price:            price(4499),
			Duration:         "10 weeks",
			Level:            "Beginner to Intermediate",
			Category:         "Design",
			Instructor:       "Sarah Martinez",
		},
		{
			ID:               9,
			Title:            "Python Programming for Beginners",
			ShortDescription: "Start your coding journey with Python",
			Price:            price(2999),
			Duration:         "8 weeks",
			Level:            "Beginner",
			Category:         "Programming",
			Instructor:       "James Chen",
		},
	}
}
