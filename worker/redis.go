package worker

import (
	"morphtext.com/mfx/tasks"
	"fmt"
)

type redisTransactions interface {
	getChunkTask(redisKey string) (*tasks.ChunkTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	getDocTask(task *Task) (*tasks.DocumentTaskCached, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	err := wrapper.tasksClient.Chunks.Update(task.redisKey, func(task *tasks.ChunkTask) {
		task.TaskStatuses.MFX.Status = tasks.TaskStatusStarted
		task.TaskStatuses.MFX.Attempts += 1
		task.TaskStatuses.MFX.StartedAt = getFormattedNow()
		task.TaskStatuses.MFX.CompletedAt = nil
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	err := wrapper.tasksClient.Chunks.Update(task.redisKey, func(chunkTask *tasks.ChunkTask) {
		chunkTask.TaskStatuses.MFX.Status = tasks.TaskStatusCanceled
		chunkTask.TaskStatuses.MFX.StartedAt = getFormattedNow()
		chunkTask.TaskStatuses.MFX.CompletedAt = getFormattedNow()
		chunkTask.TaskStatuses.MFX.Attempts += 1
		chunkTask.TaskStatuses.MFX.ErrorMessages = append(
			chunkTask.TaskStatuses.MFX.ErrorMessages,
			errorMessages...,
		)
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	err := wrapper.tasksClient.Documents.Update(task.chunkTask.DocID, func(docTask *tasks.DocumentTask) {
		docTask.FailedTasks = append(docTask.FailedTasks, "mfx")
		if docTask.FailedChunks == nil {
			docTask.FailedChunks = make(map[string][]string)
		}
		docTask.FailedChunks[task.redisKey] = append(docTask.FailedChunks[task.redisKey], "mfx")
	})
	if err != nil {
		return err
	}
	err = wrapper.tasksClient.Chunks.Update(task.redisKey, func(chunkTask *tasks.ChunkTask) {
		chunkTask.TaskStatuses.MFX.Status = tasks.TaskStatusCompletedFailure
		chunkTask.TaskStatuses.MFX.StartedAt = getFormattedNow()
		chunkTask.TaskStatuses.MFX.CompletedAt = getFormattedNow()
		chunkTask.TaskStatuses.MFX.Attempts += 1
		chunkTask.TaskStatuses.MFX.ErrorMessages = append(
			chunkTask.TaskStatuses.MFX.ErrorMessages,
			fmt.Sprintf(
				"Task has exceeded retries. (Attempts: %d, max retries: %d )",
				chunkTask.TaskStatuses.MFX.Attempts,
				maxRetries,
			),
		)
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Chunks.Update(task.redisKey, func(chunkTask *tasks.ChunkTask) {
		chunkTask.TaskStatuses.MFX.Status = tasks.TaskStatusFailed
		chunkTask.TaskStatuses.MFX.CompletedAt = getFormattedNow()
		chunkTask.TaskStatuses.MFX.ErrorMessages = append(chunkTask.TaskStatuses.MFX.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Chunks.Update(task.redisKey, func(chunkTask *tasks.ChunkTask) {
		if !chunkTask.TaskStatuses.MFX.Status.Complete() {
			chunkTask.TaskStatuses.MFX.Status = tasks.TaskStatusCompletedSuccess
		}
		chunkTask.TaskStatuses.MFX.CompletedAt = getFormattedNow()
		chunkTask.TaskStatuses.MFX.ResultsFileKey = getResultsFileKey(task)
	})
}

func (wrapper *redisClientWrapper) getChunkTask(redisKey string) (*tasks.ChunkTask, error) {
	return wrapper.tasksClient.Chunks.Get(redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(task.chunkTask.JobID)
}

func (wrapper *redisClientWrapper) getDocTask(task *Task) (*tasks.DocumentTaskCached, error) {
	return wrapper.tasksClient.Documents.GetCached(task.chunkTask.DocID)
}
