// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 api 定义营销视频流水线 HTTP API 的请求与响应类型。

# API 概览

RESTful API 覆盖流水线全流程：

  - 项目 CRUD（创建、列表、查询、删除）
  - 脚本生成与分镜拆解
  - 关键帧与视频片段生成（单镜头或整批）
  - 镜头资产版本回滚
  - 成片导出
  - 成本台账查询与重置
  - 风格库列表

# 基础 URL

默认基础 URL：

	http://localhost:8080

请求与响应均为 application/json，统一响应包络见 handlers.Response。
*/
package api
