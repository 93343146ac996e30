// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 handlers 提供营销视频流水线 HTTP API 的请求处理器实现。

# 概述

handlers 包实现了流水线所有 HTTP 端点的请求处理逻辑，
包括项目管理、脚本/分镜/关键帧/片段生成、版本回滚、成片导出、
成本台账以及统一的响应/错误处理。
所有 Handler 均遵循标准 net/http 接口，路由使用 Go 1.22 的方法匹配模式。

# 核心类型

  - ProjectHandler   — 项目 CRUD
  - PipelineHandler  — 脚本、分镜、关键帧、片段、回滚、导出
  - CostsHandler     — 成本台账汇总与重置
  - StylesHandler    — 风格库列表
  - HealthHandler    — 服务健康检查（/health, /healthz, /ready）
  - Response         — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo        — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter   — 包装 http.ResponseWriter 以捕获状态码
  - 就绪探针        — 按必需/可选注册的依赖检查（sqlite、redis、ffmpeg）

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteErr / WriteJSON 辅助函数
  - 请求验证：DecodeJSONBody（严格模式）、ValidateContentType
  - ErrorCode → HTTP 状态码自动映射（4xx/5xx）
  - 可扩展就绪检查：RegisterCheck / RegisterOptionalCheck 注册依赖探针
*/
package handlers
