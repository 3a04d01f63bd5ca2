package registry

import (
	"context"

	"toll-engine/internal/repository"
	"toll-engine/internal/utils"
)

// Local resolves plates against the engine's own vehicles table, for
// deployments that run without an external registry service.
type Local struct {
	vehicles *repository.VehicleRepository
}

func NewLocal(vehicles *repository.VehicleRepository) *Local {
	return &Local{vehicles: vehicles}
}

func (l *Local) Resolve(ctx context.Context, plate string) (Owner, error) {
	vehicle, err := l.vehicles.GetByPlate(ctx, utils.NormalizePlate(plate))
	if err != nil {
		return Owner{}, err
	}
	if vehicle == nil {
		return Owner{Name: "Unregistered", Registered: false}, nil
	}
	return Owner{Name: vehicle.OwnerName, Registered: true}, nil
}
