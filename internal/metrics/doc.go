// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的内部指标收集：HTTP 请求、生成调用
（按媒体种类与后端维度）、重试/后备/占位降级计数、成本累计、导出与
回滚操作以及缓存命中率。

Collector 的所有记录方法对 nil 接收者安全，未接线指标时可直接传 nil。
*/
package metrics
