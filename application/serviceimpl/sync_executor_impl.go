package serviceimpl

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
	"drivesync/domain/services"
	"drivesync/infrastructure/crypto"
	"drivesync/pkg/logger"
)

const (
	transferWorkerPoolSize = 4
	// fastModeMaxAgeHours bounds how old a cached single-level listing of
	// the target directory may be before fast mode falls back to a live
	// provider call, per §4.3's freshness rule.
	fastModeMaxAgeHours = 1
)

type syncExecutor struct {
	configRepo   repositories.SyncConfigRepository
	accountRepo  repositories.AccountRepository
	taskRepo     repositories.SyncTaskRepository
	itemRepo     repositories.SyncTaskItemRepository
	driveManager services.DriveManager
	ruleEngine   services.RuleEngine
	diffEngine   services.DiffEngine
	fileCache    services.FileCacheService
	cipher       *crypto.CredentialsCipher
}

func NewSyncExecutor(
	configRepo repositories.SyncConfigRepository,
	accountRepo repositories.AccountRepository,
	taskRepo repositories.SyncTaskRepository,
	itemRepo repositories.SyncTaskItemRepository,
	driveManager services.DriveManager,
	ruleEngine services.RuleEngine,
	diffEngine services.DiffEngine,
	fileCache services.FileCacheService,
	cipher *crypto.CredentialsCipher,
) services.SyncExecutor {
	return &syncExecutor{
		configRepo:   configRepo,
		accountRepo:  accountRepo,
		taskRepo:     taskRepo,
		itemRepo:     itemRepo,
		driveManager: driveManager,
		ruleEngine:   ruleEngine,
		diffEngine:   diffEngine,
		fileCache:    fileCache,
		cipher:       cipher,
	}
}

// Execute runs one end-to-end sync per §4.6: load config+account, list both
// sides concurrently, filter/rename/diff, materialize missing target
// directories, fan out deletes then transfers, and persist a SyncTask plus
// one SyncTaskItem per attempted unit. Per-unit failures never abort the
// run; only a failure before the diff fails the whole task.
func (e *syncExecutor) Execute(ctx context.Context, configID uuid.UUID) (services.ExecutionResult, error) {
	start := time.Now()

	cfg, err := e.configRepo.GetByID(ctx, configID)
	if err != nil {
		return services.ExecutionResult{}, &services.NotFoundError{Resource: "sync_config", ID: configID.String()}
	}
	if cfg.EndTime != nil && !cfg.EndTime.After(time.Now()) {
		return services.ExecutionResult{}, &services.ValidationError{Field: "end_time", Reason: "config has expired"}
	}

	account, err := e.accountRepo.GetByID(ctx, cfg.AccountID)
	if err != nil {
		return services.ExecutionResult{}, &services.NotFoundError{Resource: "drive_account", ID: cfg.AccountID.String()}
	}
	if !account.IsValid || account.Credentials == "" {
		return services.ExecutionResult{}, &services.AuthError{DriveType: string(account.DriveType), Reason: "account has no valid credentials"}
	}

	task := &models.SyncTask{
		ID:        uuid.New(),
		ConfigID:  cfg.ID,
		Status:    models.SyncTaskStatusRunning,
		StartTime: start,
	}
	if err := e.taskRepo.Create(ctx, task); err != nil {
		return services.ExecutionResult{}, &services.InternalError{Reason: "failed to create sync task", Cause: err}
	}

	result, items, runErr := e.run(ctx, cfg, account)

	duraTime := time.Since(start).Milliseconds()
	status := models.SyncTaskStatusCompleted
	errMsg := ""
	if runErr != nil {
		status = models.SyncTaskStatusFailed
		errMsg = runErr.Error()
	}

	taskNum, _ := json.Marshal(models.TaskNum{
		AddedSuccess:   result.AddedSuccess,
		AddedFail:      result.AddedFail,
		DeletedSuccess: result.DeletedSuccess,
		DeletedFail:    result.DeletedFail,
	})

	if err := e.taskRepo.UpdateStatus(ctx, task.ID, status, duraTime, string(taskNum), errMsg); err != nil {
		logger.Error(logger.CategoryDB, "update_task_status", "failed to persist sync task status", err, map[string]interface{}{"task_id": task.ID.String()})
	}
	if len(items) > 0 {
		for i := range items {
			items[i].TaskID = task.ID
		}
		if err := e.itemRepo.BatchCreate(ctx, items); err != nil {
			logger.Error(logger.CategoryDB, "batch_create_items", "failed to persist sync task items", err, map[string]interface{}{"task_id": task.ID.String()})
		}
	}

	result.TaskID = task.ID

	if runErr == nil && status == models.SyncTaskStatusCompleted {
		if err := e.configRepo.UpdateLastSync(ctx, cfg.ID, start); err != nil {
			logger.Error(logger.CategoryDB, "update_last_sync", "failed to stamp last_sync", err, map[string]interface{}{"config_id": cfg.ID.String()})
		}
	}

	return result, runErr
}

func (e *syncExecutor) run(ctx context.Context, cfg *models.SyncConfig, account *models.Account) (services.ExecutionResult, []models.SyncTaskItem, error) {
	result := services.ExecutionResult{}

	rawCreds := account.Credentials
	if e.cipher != nil {
		decrypted, err := e.cipher.Decrypt(rawCreds)
		if err != nil {
			return result, nil, &services.AuthError{DriveType: string(account.DriveType), Reason: "credentials could not be decrypted"}
		}
		rawCreds = decrypted
	}

	var srcMeta models.SrcMeta
	if cfg.SrcMeta != "" {
		if err := json.Unmarshal([]byte(cfg.SrcMeta), &srcMeta); err != nil {
			return result, nil, &services.ValidationError{Field: "src_meta", Reason: err.Error()}
		}
	}
	var dstMeta models.DstMeta
	if cfg.DstMeta != "" {
		_ = json.Unmarshal([]byte(cfg.DstMeta), &dstMeta)
	}

	var exclusionSpecs []models.ExclusionRuleSpec
	if cfg.Exclude != "" {
		if err := json.Unmarshal([]byte(cfg.Exclude), &exclusionSpecs); err != nil {
			return result, nil, &services.ValidationError{Field: "exclude", Reason: err.Error()}
		}
	}
	var renameSpecs []models.RenameRuleSpec
	if cfg.Rename != "" {
		if err := json.Unmarshal([]byte(cfg.Rename), &renameSpecs); err != nil {
			return result, nil, &services.ValidationError{Field: "rename", Reason: err.Error()}
		}
	}

	exclusions, err := e.ruleEngine.CompileExclusions(exclusionSpecs)
	if err != nil {
		return result, nil, err
	}
	renames, err := e.ruleEngine.CompileRenames(renameSpecs)
	if err != nil {
		return result, nil, err
	}
	filter := e.ruleEngine.NewFilter(exclusions)

	speed := cfg.RecursionSpeed
	if speed == "" {
		speed = models.RecursionSpeedNormal
	}

	overwrite := cfg.Method == models.SyncMethodOverwrite

	var source, target []models.BaseFileInfo
	var srcErr, dstErr error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		client, err := e.driveManager.GetClient(ctx, services.Credentials{DriveType: account.DriveType, RawToken: rawCreds})
		if err != nil {
			srcErr = err
			return
		}
		source, srcErr = client.ListShare(ctx, services.ListShareParams{
			SourceType: srcMeta.SourceType,
			SourceID:   srcMeta.SourceID,
			Path:       cfg.SrcPath,
			Recursive:  !overwrite,
			Speed:      speed,
			Filter:     filter,
		})
	}()

	go func() {
		defer wg.Done()

		// Fast mode only short-circuits the single-level listing overwrite
		// mode already requires: a recursive listing cannot be served from
		// FileCache's flat (account, parent) index without re-deriving the
		// whole subtree, which the cache does not track.
		if overwrite && speed == models.RecursionSpeedFast && e.fileCache != nil {
			fresh, freshErr := e.fileCache.IsFresh(ctx, account.ID, dstMeta.FileID, fastModeMaxAgeHours)
			if freshErr == nil && fresh {
				target, dstErr = e.fileCache.ListChildren(ctx, account.ID, dstMeta.FileID, true)
				return
			}
		}

		client, err := e.driveManager.GetClient(ctx, services.Credentials{DriveType: account.DriveType, RawToken: rawCreds})
		if err != nil {
			dstErr = err
			return
		}
		target, dstErr = client.ListDisk(ctx, services.ListDiskParams{
			Path:      cfg.DstPath,
			FileID:    dstMeta.FileID,
			Recursive: !overwrite,
			Speed:     speed,
			Filter:    filter,
		})
		if dstErr == nil && e.fileCache != nil {
			cacheVersion := time.Now().UTC().Format(time.RFC3339Nano)
			if _, _, err := e.fileCache.SmartUpsert(ctx, account.ID, target, cacheVersion, false); err != nil {
				logger.Error(logger.CategoryDB, "warm_file_cache", "failed to write through target listing to file cache", err, map[string]interface{}{"account_id": account.ID.String()})
			}
		}
	}()

	wg.Wait()
	if srcErr != nil {
		return result, nil, srcErr
	}
	if dstErr != nil {
		return result, nil, dstErr
	}

	if !overwrite {
		source = e.ruleEngine.ApplyRenames(source, renames)
	}

	diff := e.diffEngine.Diff(cfg.Method, source, target, cfg.SrcPath, cfg.DstPath, dstMeta.FileID)

	client, err := e.driveManager.GetClient(ctx, services.Credentials{DriveType: account.DriveType, RawToken: rawCreds})
	if err != nil {
		return result, nil, err
	}

	mkdirItems, err := e.materializeDirectories(ctx, client, cfg, &diff)
	if err != nil {
		return result, nil, err
	}

	items := make([]models.SyncTaskItem, 0, len(mkdirItems)+len(diff.ToAdd)+len(diff.ToDelete))
	items = append(items, mkdirItems...)

	deleteItems := e.executeDeletes(ctx, client, diff.ToDelete, &result)
	items = append(items, deleteItems...)

	addItems := e.executeAdds(ctx, client, cfg, srcMeta, diff.ToAdd, &result, overwrite)
	items = append(items, addItems...)

	return result, items, nil
}

// materializeDirectories implements §4.6 step 7: every distinct
// target_parent_path in to_add that isn't yet known gets created, shallowest
// first, and every to_add entry sharing that path is patched with the newly
// learned file id.
func (e *syncExecutor) materializeDirectories(ctx context.Context, client services.ProviderClient, cfg *models.SyncConfig, diff *services.DiffResult) ([]models.SyncTaskItem, error) {
	targetBase := strings.TrimSuffix(cfg.DstPath, "/")
	missing := make(map[string]bool)
	for _, item := range diff.ToAdd {
		if item.TargetParentFileID == "" && item.TargetParentPath != "" && item.TargetParentPath != targetBase {
			missing[item.TargetParentPath] = true
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	paths := make([]string, 0, len(missing))
	for p := range missing {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		return strings.Count(paths[i], "/") < strings.Count(paths[j], "/")
	})

	resolved := make(map[string]string)
	items := make([]models.SyncTaskItem, 0, len(paths))

	for _, p := range paths {
		parentPath := path.Dir(p)
		parentID, ok := resolved[parentPath]
		if !ok {
			parentID = findKnownParentID(diff.ToAdd, parentPath)
		}

		name := path.Base(p)
		created, err := client.Mkdir(ctx, p, parentID, name, true)
		item := models.SyncTaskItem{
			ID:       uuid.New(),
			Type:     models.SyncTaskItemTypeCreate,
			DstPath:  p,
			FileName: name,
			Status:   models.SyncTaskItemStatusCompleted,
		}
		if err != nil {
			item.Status = models.SyncTaskItemStatusFailed
			item.ErrMsg = err.Error()
			items = append(items, item)
			continue
		}
		items = append(items, item)
		resolved[p] = created.FileID

		for i := range diff.ToAdd {
			if diff.ToAdd[i].TargetParentPath == p {
				diff.ToAdd[i].TargetParentFileID = created.FileID
			}
		}
	}

	return items, nil
}

// findKnownParentID looks for an already-materialized ancestor among the
// diff's own to_add entries (an existing target item at that exact path);
// an empty return means the chain above it is still being created in this
// same pass and will be filled in once that step completes.
func findKnownParentID(adds []services.AddItem, parentPath string) string {
	for _, a := range adds {
		if a.TargetFullPath == parentPath && a.TargetParentFileID != "" {
			return a.TargetParentFileID
		}
	}
	return ""
}

func (e *syncExecutor) executeDeletes(ctx context.Context, client services.ProviderClient, toDelete []services.DeleteItem, result *services.ExecutionResult) []models.SyncTaskItem {
	if len(toDelete) == 0 {
		return nil
	}

	ids := make([]string, 0, len(toDelete))
	paths := make([]string, 0, len(toDelete))
	for _, d := range toDelete {
		ids = append(ids, d.Target.FileID)
		paths = append(paths, d.Target.FilePath)
	}

	_, err := client.Remove(ctx, services.RemoveParams{IDs: ids, Paths: paths})

	items := make([]models.SyncTaskItem, 0, len(toDelete))
	for _, d := range toDelete {
		item := models.SyncTaskItem{
			ID:       uuid.New(),
			Type:     models.SyncTaskItemTypeDelete,
			DstPath:  d.Target.FilePath,
			FileName: d.Target.FileName,
			FileSize: d.Target.FileSize,
			Status:   models.SyncTaskItemStatusCompleted,
		}
		if err != nil {
			item.Status = models.SyncTaskItemStatusFailed
			item.ErrMsg = err.Error()
			result.DeletedFail++
		} else {
			result.DeletedSuccess++
		}
		items = append(items, item)
	}
	return items
}

// executeAdds groups to_add by target_parent_path and issues one transfer
// per group, carrying the merged ext map per §4.6 step 9. Groups run
// through a small bounded worker pool since each transfer call already
// batches its siblings. Folders are never transferred outside overwrite
// mode: a provider-side transfer of a folder id copies its whole subtree,
// which would duplicate every nested file already present as its own
// to_add entry. Outside overwrite, folders only ever reach the target via
// materializeDirectories.
func (e *syncExecutor) executeAdds(ctx context.Context, client services.ProviderClient, cfg *models.SyncConfig, srcMeta models.SrcMeta, toAdd []services.AddItem, result *services.ExecutionResult, overwrite bool) []models.SyncTaskItem {
	groups := make(map[string][]services.AddItem)
	order := make([]string, 0)
	for _, a := range toAdd {
		if !overwrite && a.Source.IsFolder {
			continue
		}
		if _, ok := groups[a.TargetParentPath]; !ok {
			order = append(order, a.TargetParentPath)
		}
		groups[a.TargetParentPath] = append(groups[a.TargetParentPath], a)
	}
	if len(order) == 0 {
		return nil
	}

	var mu sync.Mutex
	var items []models.SyncTaskItem
	sem := make(chan struct{}, transferWorkerPoolSize)
	var wg sync.WaitGroup

	for _, parentPath := range order {
		group := groups[parentPath]
		wg.Add(1)
		sem <- struct{}{}
		go func(group []services.AddItem) {
			defer wg.Done()
			defer func() { <-sem }()

			groupItems := e.transferGroup(ctx, client, cfg, srcMeta, group)

			mu.Lock()
			for _, gi := range groupItems {
				if gi.Status == models.SyncTaskItemStatusCompleted {
					result.AddedSuccess++
				} else {
					result.AddedFail++
				}
			}
			items = append(items, groupItems...)
			mu.Unlock()
		}(group)
	}

	wg.Wait()
	return items
}

func (e *syncExecutor) transferGroup(ctx context.Context, client services.ProviderClient, cfg *models.SyncConfig, srcMeta models.SrcMeta, group []services.AddItem) []models.SyncTaskItem {
	fileIDs := make([]string, 0, len(group))
	ext := map[string]any{
		"ondup": string(models.OnDupNewCopy),
		"async": 1,
	}
	for k, v := range srcMeta.ExtParams {
		ext[k] = v
	}
	for i, a := range group {
		fileIDs = append(fileIDs, a.Source.FileID)
		for k, v := range a.Source.FileExt {
			ext[k] = v
		}
		if i == 0 && a.Source.ParentID != "" {
			ext["share_parent_fid"] = a.Source.ParentID
		}
	}

	_, err := client.Transfer(ctx, services.TransferParams{
		SourceType: srcMeta.SourceType,
		SourceID:   srcMeta.SourceID,
		SourcePath: cfg.SrcPath,
		TargetPath: group[0].TargetParentPath,
		TargetID:   group[0].TargetParentFileID,
		FileIDs:    fileIDs,
		Ext:        ext,
	})

	items := make([]models.SyncTaskItem, 0, len(group))
	for _, a := range group {
		item := models.SyncTaskItem{
			ID:       uuid.New(),
			Type:     models.SyncTaskItemTypeCopy,
			SrcPath:  a.Source.FilePath,
			DstPath:  a.TargetFullPath,
			FileName: a.Source.FileName,
			FileSize: a.Source.FileSize,
			Status:   models.SyncTaskItemStatusCompleted,
		}
		if err != nil {
			item.Status = models.SyncTaskItemStatusFailed
			item.ErrMsg = err.Error()
		}
		items = append(items, item)
	}
	return items
}
