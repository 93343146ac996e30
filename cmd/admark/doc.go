// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
Package main 提供 admark 服务端程序入口。

# 概述

cmd/admark 是营销视频流水线的可执行入口，提供 HTTP API 服务、
健康检查和版本查询等子命令。程序支持 YAML 配置文件加载、
结构化日志（zap）、Prometheus 指标采集以及后端凭证热更新。

# 核心类型

  - Server     — 主服务器，管理 HTTP、Metrics 双端口及优雅关闭
  - Middleware — HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve（启动服务）、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    MetricsMiddleware、CORS、RateLimiter（基于 IP）
  - 凭证热更新：config.Watcher 轮询配置文件，变更后推给三个生成服务
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号监听 → 停止监听器 → 并行关闭两个服务器 → 关闭缓存
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
