package filestorage

// FileStorageInterface определяет контракт для хранения сгенерированных
// файлов (QR-коды активов). Save возвращает относительный путь, который
// кладётся в запись актива как qr_code.
type FileStorageInterface interface {
	Save(fileName string, data []byte) (filePath string, err error)
	Delete(filePath string) error
}
