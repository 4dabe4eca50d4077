package converter

import "github.com/DRSN-tech/admin-backend/internal/domain"

type JobConverter interface {
	ToRedisModel(entity *domain.Job) *JobRedisModel
	ToEntity(model *JobRedisModel) *domain.Job
}

type JobConverterImpl struct{}

func NewJobConverterImpl() *JobConverterImpl { return &JobConverterImpl{} }

func (JobConverterImpl) ToRedisModel(j *domain.Job) *JobRedisModel {
	if j == nil {
		return nil
	}

	return &JobRedisModel{
		ID:         j.ID,
		Type:       string(j.Type),
		Queue:      string(j.Queue),
		Payload:    j.Payload,
		Attempt:    j.Attempt,
		EnqueuedAt: j.EnqueuedAt,
		LastError:  j.LastError,
	}
}

func (JobConverterImpl) ToEntity(m *JobRedisModel) *domain.Job {
	if m == nil {
		return nil
	}

	return &domain.Job{
		ID:         m.ID,
		Type:       domain.JobType(m.Type),
		Queue:      domain.Queue(m.Queue),
		Payload:    m.Payload,
		Attempt:    m.Attempt,
		EnqueuedAt: m.EnqueuedAt,
		LastError:  m.LastError,
	}
}
