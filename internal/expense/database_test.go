package expense

import (
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveExpense", func() {
		var (
			expense *Expense
			err     error
		)

		BeforeEach(func() {
			expense = &Expense{
				ID:          "test-id",
				CreatedAt:   time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC),
				Date:        &civil.Date{Year: 2024, Month: time.March, Day: 5},
				AmountCents: int64Ptr(1250),
				Currency:    "AUD",
				Vendor:      strPtr("Joe's Cafe & Bar"),
				Category:    strPtr("Meals & Entertainment"),
				ImageFile:   "test-id_receipt.jpg",
				ContentType: "image/jpeg",
				OCRText:     strPtr("Joe's Cafe & Bar\nTotal: $12.50"),
			}
		})

		JustBeforeEach(func() {
			err = db.SaveExpense(expense)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("round trips every field", func() {
				saved, getErr := db.GetExpense("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved).To(Equal(expense))
			})
		})

		When("the expense has no optional fields", func() {
			BeforeEach(func() {
				expense = &Expense{ID: "bare", CreatedAt: time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC), Currency: "AUD"}
			})

			It("keeps them nil", func() {
				saved, getErr := db.GetExpense("bare")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Date).To(BeNil())
				Expect(saved.AmountCents).To(BeNil())
				Expect(saved.Vendor).To(BeNil())
			})
		})

		When("the expense already exists", func() {
			BeforeEach(func() {
				Expect(db.SaveExpense(&Expense{ID: "test-id", Currency: "USD"})).To(Succeed())
			})

			It("replaces it", func() {
				saved, getErr := db.GetExpense("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Currency).To(Equal("AUD"))
			})
		})
	})

	Describe("GetExpense", func() {
		When("the expense does not exist", func() {
			It("returns ErrNotFound", func() {
				_, err := db.GetExpense("missing")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("ListExpenses", func() {
		var (
			expenses []*Expense
			err      error
		)

		JustBeforeEach(func() {
			expenses, err = db.ListExpenses()
		})

		When("expenses exist", func() {
			BeforeEach(func() {
				Expect(db.SaveExpense(&Expense{ID: "a"})).To(Succeed())
				Expect(db.SaveExpense(&Expense{ID: "b"})).To(Succeed())
			})

			It("returns all of them", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses).To(HaveLen(2))
				Expect(expenses[0].ID).To(Equal("a"))
				Expect(expenses[1].ID).To(Equal("b"))
			})
		})

		When("the database is empty", func() {
			It("returns an empty, non-nil slice", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses).NotTo(BeNil())
				Expect(expenses).To(BeEmpty())
			})
		})
	})

	Describe("DeleteExpense", func() {
		When("the expense exists", func() {
			BeforeEach(func() {
				Expect(db.SaveExpense(&Expense{ID: "gone"})).To(Succeed())
			})

			It("removes it", func() {
				Expect(db.DeleteExpense("gone")).To(Succeed())
				_, err := db.GetExpense("gone")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})

		When("the expense does not exist", func() {
			It("returns ErrNotFound", func() {
				Expect(db.DeleteExpense("missing")).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("NewBoltDB", func() {
		When("the database is reopened", func() {
			It("keeps saved expenses", func() {
				Expect(db.SaveExpense(&Expense{ID: "persisted"})).To(Succeed())
				Expect(db.Close()).To(Succeed())

				reopened, err := NewBoltDB(dbPath)
				Expect(err).NotTo(HaveOccurred())
				db = reopened

				_, err = db.GetExpense("persisted")
				Expect(err).NotTo(HaveOccurred())
			})
		})

		When("the path is not writable", func() {
			It("returns an error", func() {
				_, err := NewBoltDB(filepath.Join(tmpDir, "missing-dir", "test.db"))
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
