package repositories

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snkproperties/snkprop_backend/models"
	"github.com/snkproperties/snkprop_backend/utils"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrCodeGeneration = errors.New("could not generate a unique code")
)

// codeRetryLimit bounds the retry-until-unique loop for generated codes.
const codeRetryLimit = 10

type EmployeeRepository struct {
	collection *mongo.Collection
}

func NewEmployeeRepository(db *mongo.Database) *EmployeeRepository {
	return &EmployeeRepository{
		collection: db.Collection("employees"),
	}
}

// Create inserts a new employee, assigning a unique referral code and
// employee code. Generated codes collide with probability low enough that
// the retry loop terminating within its bound is a practical certainty,
// but a persistent conflict still surfaces as ErrCodeGeneration rather
// than looping forever.
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"email": strings.ToLower(employee.Email)})
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}

	now := time.Now()
	employee.Email = strings.ToLower(employee.Email)
	employee.IsActive = true
	employee.CreatedAt = now
	employee.UpdatedAt = now
	if employee.Targets == (models.EmployeeTargets{}) {
		employee.Targets = models.DefaultTargets()
	}
	if employee.CommissionRates.UserRegistration == 0 && employee.CommissionRates.BrokerRegistration == 0 {
		employee.CommissionRates = models.DefaultCommissionRates()
	}

	for attempt := 0; attempt < codeRetryLimit; attempt++ {
		referralCode, err := utils.GenerateReferralCode()
		if err != nil {
			return err
		}
		employeeCode, err := utils.GenerateEmployeeCode(now)
		if err != nil {
			return err
		}
		employee.ReferralCode = referralCode
		employee.EmployeeCode = employeeCode
		employee.ID = primitive.NewObjectID()

		_, err = r.collection.InsertOne(ctx, employee)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
		// Unique index collision on one of the generated codes; retry
		// with fresh codes.
	}
	return ErrCodeGeneration
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Employee, error) {
	var employee models.Employee
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&employee)
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	var employee models.Employee
	err := r.collection.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&employee)
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// GetByReferralCode resolves a referral code to an active employee.
// Lookup is case-insensitive since codes are stored upper-cased.
func (r *EmployeeRepository) GetByReferralCode(ctx context.Context, code string) (*models.Employee, error) {
	var employee models.Employee
	err := r.collection.FindOne(ctx, bson.M{
		"referralCode": strings.ToUpper(strings.TrimSpace(code)),
		"isActive":     true,
	}).Decode(&employee)
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// SearchFilter narrows the admin employee directory.
type SearchFilter struct {
	Search   string // matches name, email, employee code or referral code
	Role     string
	IsActive *bool
}

// Search returns a page of employees matching the filter, newest first,
// along with the total match count.
func (r *EmployeeRepository) Search(ctx context.Context, f SearchFilter, page, limit int) ([]models.Employee, int64, error) {
	filter := bson.M{}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"employeeName": pattern},
			bson.M{"email": pattern},
			bson.M{"employeeCode": pattern},
			bson.M{"referralCode": pattern},
		}
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.IsActive != nil {
		filter["isActive"] = *f.IsActive
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := r.collection.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(int64((page-1)*limit)).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	employees := []models.Employee{}
	if err := cursor.All(ctx, &employees); err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

// UpdateRates replaces the employee's commission rate card and targets.
// Past ledger entries keep their stored totals; recomputation under the
// new rates is an explicit separate operation.
func (r *EmployeeRepository) UpdateRates(ctx context.Context, id primitive.ObjectID, rates models.CommissionRates, targets models.EmployeeTargets) error {
	res, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"commissionRates": rates,
			"targets":         targets,
			"updatedAt":       time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Deactivate disables an employee. Their referral code stops validating;
// accrued ledger entries remain untouched.
func (r *EmployeeRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"isActive":  false,
			"updatedAt": time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *EmployeeRepository) UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"lastLogin": time.Now()},
	})
	return err
}
