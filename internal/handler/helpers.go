package handler

import (
	"mime/multipart"

	"anoa.com/reportdesk/internal/service"
	"anoa.com/reportdesk/pkg/validator"
)

func formatValidationError(err error) string {
	return validator.FormatValidationError(err)
}

// openUpload converts a multipart file header into an UploadFile. The
// caller owns the returned closer.
func openUpload(fileHeader *multipart.FileHeader) (*service.UploadFile, multipart.File, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, err
	}

	return &service.UploadFile{
		Reader:      file,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}, file, nil
}
