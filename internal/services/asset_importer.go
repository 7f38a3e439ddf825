package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/filestorage"
	"asset-system/pkg/qr"
)

type AssetImporterInterface interface {
	ImportFromXLSX(ctx context.Context, fileData []byte) (*dto.ImportResultDTO, error)
}

// AssetImporter - массовая загрузка активов из xlsx-файла.
// Ожидаемые колонки (первая строка - заголовок):
//
//	name | type | brand | model | date_of_buying | department_id
//
// Импорт построчный: ошибка одной строки не останавливает остальные,
// все проблемы собираются в отчёт.
type AssetImporter struct {
	assetRepo repositories.AssetRepositoryInterface
	deptRepo  repositories.DepartmentRepositoryInterface
	generator qr.GeneratorInterface
	storage   filestorage.FileStorageInterface
	logger    *zap.Logger
}

func NewAssetImporter(
	assetRepo repositories.AssetRepositoryInterface,
	deptRepo repositories.DepartmentRepositoryInterface,
	generator qr.GeneratorInterface,
	storage filestorage.FileStorageInterface,
	logger *zap.Logger,
) AssetImporterInterface {
	return &AssetImporter{
		assetRepo: assetRepo,
		deptRepo:  deptRepo,
		generator: generator,
		storage:   storage,
		logger:    logger,
	}
}

func (s *AssetImporter) ImportFromXLSX(ctx context.Context, fileData []byte) (*dto.ImportResultDTO, error) {
	f, err := excelize.OpenReader(bytes.NewReader(fileData))
	if err != nil {
		return nil, apperrors.NewInvalidInputError("не удалось прочитать xlsx-файл: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, apperrors.NewInvalidInputError("в файле нет ни одного листа")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("не удалось прочитать строки листа %q: %v", sheet, err)
	}
	if len(rows) < 2 {
		return nil, apperrors.NewInvalidInputError("файл не содержит строк с данными")
	}

	result := &dto.ImportResultDTO{}

	// Кеш проверенных подразделений, чтобы не дёргать БД на каждую строку.
	knownDepts := make(map[uint64]bool)

	for i, row := range rows[1:] {
		rowNum := i + 2 // человеческая нумерация с учётом заголовка

		asset, rowErr := s.parseRow(ctx, row, knownDepts)
		if rowErr != nil {
			result.Errors = append(result.Errors, dto.ImportRowError{Row: rowNum, Msg: rowErr.Error()})
			continue
		}

		if qrPath, err := s.renderQR(asset.Name, asset.AssetCode); err != nil {
			s.logger.Warn("импорт: не удалось сгенерировать QR-код",
				zap.Int("row", rowNum), zap.Error(err))
		} else {
			asset.QRCode = &qrPath
		}

		if _, err := s.assetRepo.CreateAsset(ctx, *asset); err != nil {
			s.logger.Warn("импорт: не удалось сохранить актив",
				zap.Int("row", rowNum), zap.Error(err))
			result.Errors = append(result.Errors, dto.ImportRowError{Row: rowNum, Msg: "не удалось сохранить запись"})
			continue
		}

		result.Imported++
	}

	s.logger.Info("массовый импорт активов завершён",
		zap.Int("imported", result.Imported),
		zap.Int("failed", len(result.Errors)))

	return result, nil
}

func (s *AssetImporter) parseRow(ctx context.Context, row []string, knownDepts map[uint64]bool) (*entities.Asset, error) {
	cell := func(idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	name := cell(0)
	if name == "" {
		return nil, fmt.Errorf("пустое наименование")
	}

	deptRaw := cell(5)
	deptID, err := strconv.ParseUint(deptRaw, 10, 64)
	if err != nil || deptID == 0 {
		return nil, fmt.Errorf("неверный идентификатор подразделения %q", deptRaw)
	}
	if !knownDepts[deptID] {
		if _, err := s.deptRepo.FindDepartment(ctx, deptID); err != nil {
			return nil, fmt.Errorf("подразделение %d не существует", deptID)
		}
		knownDepts[deptID] = true
	}

	asset := &entities.Asset{
		Name:         name,
		Type:         cell(1),
		Brand:        cell(2),
		Model:        cell(3),
		AssetCode:    NewAssetCode(),
		Status:       constants.AssetAvailable,
		DepartmentID: deptID,
	}

	if raw := cell(4); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("неверный формат даты покупки %q", raw)
		}
		asset.DateOfBuying = &t
	}

	return asset, nil
}

func (s *AssetImporter) renderQR(assetName, assetCode string) (string, error) {
	png, err := s.generator.Render(assetName, assetCode)
	if err != nil {
		return "", err
	}
	return s.storage.Save(fmt.Sprintf("%s.png", strings.ToLower(assetCode)), png)
}
