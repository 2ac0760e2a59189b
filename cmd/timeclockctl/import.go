package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timeclock/internal/repository"
	"timeclock/internal/service"
)

var (
	importFile  string
	importOwner string
)

// importCmd 以指定 owner 身份导入 CSV，与上传接口走同一套校验
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a punch CSV file for an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		f, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("打开文件失败: %w", err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}

		repo := repository.NewRepository(db)
		svc := service.NewService(cfg, repo, service.NewOwnerLocker(&cfg.Lock, nil, logger), logger)

		result, err := svc.CsvImport.ImportCSV(cmd.Context(), &service.CSVUpload{
			FileName: filepath.Base(importFile),
			Size:     info.Size(),
			Body:     f,
		}, importOwner)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "imported: %d, failed: %d\n", result.SuccessCount, result.FailureCount)
		for _, e := range result.Errors {
			fmt.Fprintln(out, "  "+e)
		}
		if !result.IsSuccess() {
			logger.Warn("CSV 导入存在失败行", zap.Int("failure", result.FailureCount))
		}
		return nil
	},
}

var templateOut string

// templateCmd 输出导入模板
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write the punch CSV import template",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := service.ImportTemplate()
		if templateOut == "" {
			_, err := cmd.OutOrStdout().Write(body)
			return err
		}
		return os.WriteFile(templateOut, body, 0o644)
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "CSV file to import")
	importCmd.Flags().StringVar(&importOwner, "owner", "", "owner identity the rows are assigned to")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("owner")

	templateCmd.Flags().StringVarP(&templateOut, "out", "o", "", "output file (default stdout)")
}
