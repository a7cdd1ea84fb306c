// Package nlog - see nlog.go.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

func Infof(format string, args ...any)  { log(sevInfo, 1, format, args...) }
func Infoln(args ...any)                { log(sevInfo, 1, "", args...) }
func Warnf(format string, args ...any)  { log(sevWarn, 1, format, args...) }
func Warnln(args ...any)                { log(sevWarn, 1, "", args...) }
func Errorf(format string, args ...any) { log(sevErr, 1, format, args...) }
func Errorln(args ...any)               { log(sevErr, 1, "", args...) }
